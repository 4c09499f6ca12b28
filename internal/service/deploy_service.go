package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lucksec/zbdeploy/internal/archive"
	"github.com/lucksec/zbdeploy/internal/domain"
	"github.com/lucksec/zbdeploy/internal/logger"
	"github.com/lucksec/zbdeploy/internal/repository"
	"github.com/lucksec/zbdeploy/internal/zeabur"
)

var (
	// ErrNoWorkspace 没有可部署的工作区
	ErrNoWorkspace = errors.New("没有打开的工作区")

	// ErrMultipleWorkspaces 一次只能部署一个工作区
	ErrMultipleWorkspaces = errors.New("一次只能部署一个工作区")

	// ErrNoEnvironment 项目下没有任何环境
	ErrNoEnvironment = errors.New("项目下没有可用的环境")
)

// ControlPlane 部署流程用到的控制面操作，*zeabur.Client 实现了它
type ControlPlane interface {
	CreateTemporaryProject(ctx context.Context) (string, error)
	CreateService(ctx context.Context, projectID, name string) (string, error)
	ListEnvironments(ctx context.Context, projectID string) ([]zeabur.Environment, error)
	UploadCode(ctx context.Context, projectID, serviceID, environmentID string, code io.Reader) error
	AddDomain(ctx context.Context, serviceID, environmentID, domain string, isGenerated bool) (string, error)
}

// DeployService 部署服务接口
type DeployService interface {
	// Deploy 执行完整流程：打包 → 解析项目和服务 → 获取环境 → 上传 → 绑定域名
	// 任一步失败都会中止，不重试，也不回滚已经创建的远端资源
	Deploy(ctx context.Context, req domain.DeployRequest) (*domain.DeployResult, error)

	// Resolve 读取或创建项目和服务，返回值 created 表示本次是否新建
	Resolve(ctx context.Context, workspace, serviceName string) (cfg *domain.DeploymentConfig, created bool, err error)

	// ResolveEnvironment 返回项目的第一个环境
	ResolveEnvironment(ctx context.Context, projectID string) (string, error)

	// Upload 上传代码包
	Upload(ctx context.Context, projectID, serviceID, environmentID, archivePath string) error

	// PublishDomain 绑定域名，domainName 为空时自动生成
	// 返回服务端实际分配的域名
	PublishDomain(ctx context.Context, serviceID, environmentID, serviceName, domainName string) (string, error)

	// Status 读取工作区已保存的部署信息，不访问远端
	Status(workspace string) (*domain.DeploymentConfig, error)

	// Reset 删除工作区的部署信息，下次部署会重新创建项目
	Reset(workspace string) error
}

// deployService 部署服务实现
type deployService struct {
	repo    repository.DeploymentConfigRepository
	api     ControlPlane
	log     logger.Logger
	tempDir string
}

// NewDeployService 创建部署服务实例
// tempDir 为空时代码包写到系统临时目录
func NewDeployService(repo repository.DeploymentConfigRepository, api ControlPlane, log logger.Logger, tempDir string) DeployService {
	if log == nil {
		log = logger.GetLogger()
	}
	return &deployService{
		repo:    repo,
		api:     api,
		log:     log,
		tempDir: tempDir,
	}
}

// ValidateWorkspace 检查传入的工作区：必须恰好一个且是已存在的目录
func ValidateWorkspace(paths []string) (domain.Workspace, error) {
	switch {
	case len(paths) == 0 || (len(paths) == 1 && paths[0] == ""):
		return domain.Workspace{}, ErrNoWorkspace
	case len(paths) > 1:
		return domain.Workspace{}, ErrMultipleWorkspaces
	}

	abs, err := filepath.Abs(paths[0])
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("%w: %v", ErrNoWorkspace, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("%w: %v", ErrNoWorkspace, err)
	}
	if !info.IsDir() {
		return domain.Workspace{}, fmt.Errorf("%w: %s 不是目录", ErrNoWorkspace, abs)
	}
	return domain.Workspace{Path: abs, Name: filepath.Base(abs)}, nil
}

// Deploy 执行完整部署流程
func (s *deployService) Deploy(ctx context.Context, req domain.DeployRequest) (*domain.DeployResult, error) {
	ws := req.Workspace
	serviceName := ConvertTitle(ws.Name)
	if serviceName == "" {
		return nil, fmt.Errorf("无法从目录名 %q 生成服务名", ws.Name)
	}

	runID := uuid.NewString()
	tempDir := s.tempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	archivePath := filepath.Join(tempDir, fmt.Sprintf("zbdeploy-%s.zip", runID))
	defer func() {
		if err := os.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("删除临时代码包 %s 失败: %v", archivePath, err)
		}
	}()

	s.log.Info("[%s] 打包工作区 %s", runID, ws.Path)
	if err := archive.ZipDirectory(ws.Path, archivePath); err != nil {
		return nil, fmt.Errorf("打包工作区失败: %w", err)
	}

	cfg, created, err := s.Resolve(ctx, ws.Path, serviceName)
	if err != nil {
		return nil, err
	}

	environmentID, err := s.ResolveEnvironment(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}

	s.log.Info("[%s] 上传代码到服务 %s（环境 %s）", runID, cfg.ServiceID, environmentID)
	if err := s.Upload(ctx, cfg.ProjectID, cfg.ServiceID, environmentID, archivePath); err != nil {
		return nil, err
	}

	domainName, err := s.PublishDomain(ctx, cfg.ServiceID, environmentID, serviceName, req.Domain)
	if err != nil {
		return nil, err
	}

	s.log.Info("[%s] 部署完成，域名 %s", runID, domainName)
	return &domain.DeployResult{
		ProjectID:     cfg.ProjectID,
		ServiceID:     cfg.ServiceID,
		EnvironmentID: environmentID,
		ServiceName:   serviceName,
		Domain:        domainName,
		Created:       created,
	}, nil
}

// Resolve 读取或创建项目和服务
func (s *deployService) Resolve(ctx context.Context, workspace, serviceName string) (*domain.DeploymentConfig, bool, error) {
	existing, err := s.repo.Load(workspace)
	if err != nil {
		return nil, false, err
	}
	if existing.Complete() {
		s.log.Debug("复用已保存的项目 %s / 服务 %s", existing.ProjectID, existing.ServiceID)
		return existing, false, nil
	}

	projectID, err := s.api.CreateTemporaryProject(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("创建项目失败: %w", err)
	}
	s.log.Info("已创建项目 %s", projectID)

	serviceID, err := s.api.CreateService(ctx, projectID, serviceName)
	if err != nil {
		// 不回滚：项目已经在远端存在，下次部署会再创建一个新的
		s.log.Warn("服务创建失败，项目 %s 已成为孤立项目，需要在控制台手动删除", projectID)
		return nil, false, fmt.Errorf("创建服务失败（项目 %s 未回滚）: %w", projectID, err)
	}
	s.log.Info("已创建服务 %s", serviceID)

	cfg := &domain.DeploymentConfig{ProjectID: projectID, ServiceID: serviceID}
	if err := s.repo.Save(workspace, cfg); err != nil {
		return nil, false, fmt.Errorf("保存部署信息失败（项目 %s、服务 %s 已创建）: %w", projectID, serviceID, err)
	}
	return cfg, true, nil
}

// ResolveEnvironment 返回项目的第一个环境
func (s *deployService) ResolveEnvironment(ctx context.Context, projectID string) (string, error) {
	envs, err := s.api.ListEnvironments(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("获取环境失败: %w", err)
	}
	if len(envs) == 0 || envs[0].ID == "" {
		return "", fmt.Errorf("%w（项目 %s）", ErrNoEnvironment, projectID)
	}
	return envs[0].ID, nil
}

// Upload 上传代码包
func (s *deployService) Upload(ctx context.Context, projectID, serviceID, environmentID, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("读取代码包失败: %w", err)
	}
	defer f.Close()

	if err := s.api.UploadCode(ctx, projectID, serviceID, environmentID, f); err != nil {
		return fmt.Errorf("上传代码失败: %w", err)
	}
	return nil
}

// PublishDomain 绑定域名
func (s *deployService) PublishDomain(ctx context.Context, serviceID, environmentID, serviceName, domainName string) (string, error) {
	isGenerated := false
	if domainName == "" {
		domainName = GenerateDomain(serviceName)
		isGenerated = true
	}

	got, err := s.api.AddDomain(ctx, serviceID, environmentID, domainName, isGenerated)
	if err != nil {
		return "", fmt.Errorf("绑定域名失败: %w", err)
	}
	if got != domainName {
		s.log.Info("请求的域名 %s，实际分配 %s", domainName, got)
	}
	return got, nil
}

// Status 读取工作区已保存的部署信息
func (s *deployService) Status(workspace string) (*domain.DeploymentConfig, error) {
	return s.repo.Load(workspace)
}

// Reset 删除工作区的部署信息
func (s *deployService) Reset(workspace string) error {
	return s.repo.Delete(workspace)
}
