package zeabur

import (
	"context"
	"fmt"
)

// ServiceTemplateGit 代码上传部署使用的服务模板
const ServiceTemplateGit = "GIT"

const (
	createTemporaryProjectQuery = `mutation CreateTemporaryProject {
  createTemporaryProject {
    _id
  }
}`

	createServiceQuery = `mutation CreateService($projectID: ObjectID!, $template: ServiceTemplate!, $name: String!) {
  createService(projectID: $projectID, template: $template, name: $name) {
    _id
  }
}`

	environmentsQuery = `query GetEnvironments($projectID: ObjectID!) {
  environments(projectID: $projectID) {
    _id
    name
  }
}`

	addDomainQuery = `mutation AddDomain($serviceID: ObjectID!, $environmentID: ObjectID!, $domain: String!, $isGenerated: Boolean!) {
  addDomain(serviceID: $serviceID, environmentID: $environmentID, domain: $domain, isGenerated: $isGenerated) {
    domain
  }
}`
)

// Environment 项目下的部署环境
type Environment struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type idResult struct {
	ID string `json:"_id"`
}

// createTemporaryProjectResult createTemporaryProject 的 data
type createTemporaryProjectResult struct {
	CreateTemporaryProject *idResult `json:"createTemporaryProject"`
}

// createServiceResult createService 的 data
type createServiceResult struct {
	CreateService *idResult `json:"createService"`
}

// environmentsResult environments 的 data
type environmentsResult struct {
	Environments []Environment `json:"environments"`
}

// addDomainResult addDomain 的 data
type addDomainResult struct {
	AddDomain *struct {
		Domain string `json:"domain"`
	} `json:"addDomain"`
}

// CreateTemporaryProject 新建临时项目，返回项目 ID
func (c *Client) CreateTemporaryProject(ctx context.Context) (string, error) {
	const op = "createTemporaryProject"
	var result createTemporaryProjectResult
	if err := c.query(ctx, op, createTemporaryProjectQuery, nil, &result); err != nil {
		return "", err
	}
	if result.CreateTemporaryProject == nil || result.CreateTemporaryProject.ID == "" {
		return "", &DecodeError{Operation: op, Err: fmt.Errorf("响应缺少项目 ID")}
	}
	return result.CreateTemporaryProject.ID, nil
}

// CreateService 在项目下创建服务，返回服务 ID
func (c *Client) CreateService(ctx context.Context, projectID, name string) (string, error) {
	const op = "createService"
	var result createServiceResult
	variables := map[string]any{
		"projectID": projectID,
		"template":  ServiceTemplateGit,
		"name":      name,
	}
	if err := c.query(ctx, op, createServiceQuery, variables, &result); err != nil {
		return "", err
	}
	if result.CreateService == nil || result.CreateService.ID == "" {
		return "", &DecodeError{Operation: op, Err: fmt.Errorf("响应缺少服务 ID")}
	}
	return result.CreateService.ID, nil
}

// ListEnvironments 列出项目的环境
func (c *Client) ListEnvironments(ctx context.Context, projectID string) ([]Environment, error) {
	const op = "environments"
	var result environmentsResult
	if err := c.query(ctx, op, environmentsQuery, map[string]any{"projectID": projectID}, &result); err != nil {
		return nil, err
	}
	return result.Environments, nil
}

// AddDomain 为服务绑定域名，返回服务端实际分配的域名
func (c *Client) AddDomain(ctx context.Context, serviceID, environmentID, domain string, isGenerated bool) (string, error) {
	const op = "addDomain"
	var result addDomainResult
	variables := map[string]any{
		"serviceID":     serviceID,
		"environmentID": environmentID,
		"domain":        domain,
		"isGenerated":   isGenerated,
	}
	if err := c.query(ctx, op, addDomainQuery, variables, &result); err != nil {
		return "", err
	}
	if result.AddDomain == nil || result.AddDomain.Domain == "" {
		return "", &DecodeError{Operation: op, Err: fmt.Errorf("响应缺少域名")}
	}
	return result.AddDomain.Domain, nil
}
