package domain

// DeploymentConfig 工作区本地保存的远端标识
// 对应 <workspace>/.zeabur/config.json
type DeploymentConfig struct {
	ProjectID string `json:"projectID"` // 远端项目 ID
	ServiceID string `json:"serviceID"` // 项目下的服务 ID
}

// Complete 两个标识都存在时才可直接复用
func (c *DeploymentConfig) Complete() bool {
	return c != nil && c.ProjectID != "" && c.ServiceID != ""
}

// Workspace 表示一次部署的本地工作区
type Workspace struct {
	Path string // 绝对路径
	Name string // 目录名，用来生成服务名
}

// DeployRequest 一次部署的输入
type DeployRequest struct {
	Workspace Workspace
	// Domain 指定域名前缀；为空时由服务名加随机后缀生成
	Domain string
}

// DeployResult 一次部署的结果
type DeployResult struct {
	ProjectID     string
	ServiceID     string
	EnvironmentID string
	ServiceName   string
	// Domain 以服务端返回为准，可能与请求的不同
	Domain string
	// Created 本次是否新建了项目和服务
	Created bool
}
