package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

const (
	// EnvToken 环境变量中的 API Token
	EnvToken = "ZEABUR_TOKEN"

	sectionName = "zeabur"
	keyToken    = "token"
)

// ErrNoToken 没有配置 Token
var ErrNoToken = errors.New("未配置 Zeabur API Token")

// Source Token 的来源
type Source string

const (
	SourceNone Source = "none"
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// CredentialManager 凭据管理器接口
// 临时项目不需要 Token，配置后所有请求会带上 Authorization 头
type CredentialManager interface {
	// GetToken 获取 Token，配置文件优先于环境变量
	GetToken() (string, Source, error)

	// SetToken 保存 Token 到配置文件
	SetToken(token string) error

	// HasToken 检查是否已配置 Token
	HasToken() bool

	// RemoveToken 从配置文件删除 Token
	RemoveToken() error

	// ConfigPath 返回配置文件路径
	ConfigPath() string
}

// credentialManager 凭据管理器实现
type credentialManager struct {
	configPath string
	mu         sync.RWMutex
	token      string
}

// NewCredentialManager 创建凭据管理器实例
func NewCredentialManager(configPath string) (CredentialManager, error) {
	m := &credentialManager{configPath: configPath}
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("加载凭据配置失败: %w", err)
	}
	return m, nil
}

// load 从配置文件加载 Token，文件不存在不算错误
func (m *credentialManager) load() error {
	if m.configPath == "" {
		return nil
	}
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return nil
	}

	cfg, err := ini.Load(m.configPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(cfg.Section(sectionName).Key(keyToken).String())
	return nil
}

func (m *credentialManager) GetToken() (string, Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token != "" {
		return m.token, SourceFile, nil
	}
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		return token, SourceEnv, nil
	}
	return "", SourceNone, ErrNoToken
}

func (m *credentialManager) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("Token 不能为空")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return m.save()
}

func (m *credentialManager) HasToken() bool {
	_, _, err := m.GetToken()
	return err == nil
}

func (m *credentialManager) RemoveToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return m.save()
}

func (m *credentialManager) ConfigPath() string {
	return m.configPath
}

// save 保存到配置文件，保留文件中的其他配置项
func (m *credentialManager) save() error {
	if m.configPath == "" {
		return fmt.Errorf("未指定配置文件路径")
	}

	dir := filepath.Dir(m.configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	cfg := ini.Empty()
	if _, err := os.Stat(m.configPath); err == nil {
		loaded, err := ini.Load(m.configPath)
		if err != nil {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
		cfg = loaded
	}

	section := cfg.Section(sectionName)
	if m.token == "" {
		section.DeleteKey(keyToken)
	} else {
		section.Key(keyToken).SetValue(m.token)
	}

	if err := cfg.SaveTo(m.configPath); err != nil {
		return fmt.Errorf("保存配置文件失败: %w", err)
	}
	// 文件里有 Token，只允许当前用户读写
	return os.Chmod(m.configPath, 0600)
}

// MaskToken 隐藏 Token（只显示前4位和后4位）
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
