package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucksec/zbdeploy/internal/domain"
)

const (
	// SidecarDir 工作区内保存部署信息的目录
	SidecarDir = ".zeabur"

	// SidecarFile 部署信息文件名
	SidecarFile = "config.json"
)

// DeploymentConfigRepository 工作区部署信息仓库接口
type DeploymentConfigRepository interface {
	// Load 读取工作区的部署信息，文件不存在时返回 nil, nil
	Load(workspace string) (*domain.DeploymentConfig, error)

	// Save 写入工作区的部署信息，必要时创建 .zeabur 目录
	Save(workspace string, cfg *domain.DeploymentConfig) error

	// Delete 删除工作区的部署信息，文件不存在不算错误
	Delete(workspace string) error

	// Path 返回部署信息文件的路径
	Path(workspace string) string
}

// deploymentConfigRepository 基于 JSON 文件的实现
// 不加锁：同一工作区并发部署时后写入者覆盖前者
type deploymentConfigRepository struct{}

// NewDeploymentConfigRepository 创建部署信息仓库实例
func NewDeploymentConfigRepository() DeploymentConfigRepository {
	return &deploymentConfigRepository{}
}

func (r *deploymentConfigRepository) Path(workspace string) string {
	return filepath.Join(workspace, SidecarDir, SidecarFile)
}

func (r *deploymentConfigRepository) Load(workspace string) (*domain.DeploymentConfig, error) {
	data, err := os.ReadFile(r.Path(workspace))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取部署信息失败: %w", err)
	}

	var cfg domain.DeploymentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析部署信息 %s 失败: %w", r.Path(workspace), err)
	}
	return &cfg, nil
}

func (r *deploymentConfigRepository) Save(workspace string, cfg *domain.DeploymentConfig) error {
	dir := filepath.Join(workspace, SidecarDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建 %s 目录失败: %w", SidecarDir, err)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("序列化部署信息失败: %w", err)
	}

	// 先写临时文件再改名，读者不会看到写了一半的文件
	tmp, err := os.CreateTemp(dir, SidecarFile+".*")
	if err != nil {
		return fmt.Errorf("写入部署信息失败: %w", err)
	}
	// CreateTemp 建出的文件是 0600，配置文件需要随项目提交
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入部署信息失败: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入部署信息失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("写入部署信息失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path(workspace)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("写入部署信息失败: %w", err)
	}
	return nil
}

func (r *deploymentConfigRepository) Delete(workspace string) error {
	err := os.Remove(r.Path(workspace))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除部署信息失败: %w", err)
	}
	return nil
}
