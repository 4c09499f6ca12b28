// Package zeaburtest 提供一个内存中的假控制面，供测试使用
package zeaburtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Upload 记录一次代码上传
type Upload struct {
	ProjectID     string
	ServiceID     string
	EnvironmentID string
	FileName      string
	Code          []byte
}

// DomainRequest 记录一次 addDomain 调用
type DomainRequest struct {
	ServiceID     string
	EnvironmentID string
	Domain        string
	IsGenerated   bool
}

// Server 假控制面
// 字段在启动后可以直接修改，用来控制响应
type Server struct {
	*httptest.Server

	ProjectID    string
	ServiceID    string
	Environments []string
	// Domain 非空时 addDomain 返回它，否则回显请求的域名
	Domain string

	// FailOperation 指定的操作返回 GraphQL 错误
	FailOperation string
	// UploadStatus 上传接口返回的状态码，0 表示 200
	UploadStatus int

	mu             sync.Mutex
	calls          map[string]int
	ServiceNames   []string
	Templates      []string
	Uploads        []Upload
	DomainRequests []DomainRequest
	AuthHeaders    []string
}

// NewServer 启动假控制面，测试结束时自动关闭
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		ProjectID:    "p1",
		ServiceID:    "s1",
		Environments: []string{"e1"},
		calls:        map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", s.handleGraphQL)
	mux.HandleFunc("/projects/", s.handleUpload)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// GraphQLURL GraphQL 地址
func (s *Server) GraphQLURL() string {
	return s.URL + "/graphql"
}

// Calls 返回某个操作被调用的次数，上传记为 "uploadCode"
func (s *Server) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// TotalCalls 返回所有请求数
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Server) record(op string, r *http.Request) {
	s.mu.Lock()
	s.calls[op]++
	s.AuthHeaders = append(s.AuthHeaders, r.Header.Get("Authorization"))
	s.mu.Unlock()
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}

	op := operationOf(req.Query)
	s.record(op, r)

	if op != "" && op == s.FailOperation {
		writeJSON(w, map[string]any{
			"data":   nil,
			"errors": []map[string]string{{"message": op + " rejected"}},
		})
		return
	}

	str := func(key string) string {
		v, _ := req.Variables[key].(string)
		return v
	}

	switch op {
	case "createTemporaryProject":
		writeJSON(w, data("createTemporaryProject", map[string]string{"_id": s.ProjectID}))
	case "createService":
		s.mu.Lock()
		s.ServiceNames = append(s.ServiceNames, str("name"))
		s.Templates = append(s.Templates, str("template"))
		s.mu.Unlock()
		writeJSON(w, data("createService", map[string]string{"_id": s.ServiceID}))
	case "environments":
		envs := make([]map[string]string, 0, len(s.Environments))
		for _, id := range s.Environments {
			envs = append(envs, map[string]string{"_id": id, "name": "production"})
		}
		writeJSON(w, data("environments", envs))
	case "addDomain":
		generated, _ := req.Variables["isGenerated"].(bool)
		s.mu.Lock()
		s.DomainRequests = append(s.DomainRequests, DomainRequest{
			ServiceID:     str("serviceID"),
			EnvironmentID: str("environmentID"),
			Domain:        str("domain"),
			IsGenerated:   generated,
		})
		s.mu.Unlock()
		domain := s.Domain
		if domain == "" {
			domain = str("domain")
		}
		writeJSON(w, data("addDomain", map[string]string{"domain": domain}))
	default:
		http.Error(w, `{"error":"unknown operation"}`, http.StatusBadRequest)
	}
}

// handleUpload 处理 /projects/{projectID}/services/{serviceID}/deploy
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if r.Method != http.MethodPost || len(parts) != 5 || parts[2] != "services" || parts[4] != "deploy" {
		http.NotFound(w, r)
		return
	}
	s.record("uploadCode", r)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, `{"error":"bad multipart"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("code")
	if err != nil {
		http.Error(w, `{"error":"missing code"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	code, _ := io.ReadAll(file)

	s.mu.Lock()
	s.Uploads = append(s.Uploads, Upload{
		ProjectID:     parts[1],
		ServiceID:     parts[3],
		EnvironmentID: r.FormValue("environment"),
		FileName:      header.Filename,
		Code:          code,
	})
	s.mu.Unlock()

	if s.UploadStatus != 0 {
		http.Error(w, `{"error":"upload rejected"}`, s.UploadStatus)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func operationOf(query string) string {
	for _, op := range []string{"createTemporaryProject", "createService", "environments", "addDomain"} {
		if strings.Contains(query, op+"(") || strings.Contains(query, op+" {") || strings.Contains(query, op+"{") {
			return op
		}
	}
	return ""
}

func data(key string, value any) map[string]any {
	return map[string]any{"data": map[string]any{key: value}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
