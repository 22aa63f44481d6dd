package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 端到端测试：API进程和消费者进程都需要已经启动
//
//	CATALOG_E2E_BASE_URL=http://localhost:8080 go test ./test/integration/...
//
// 写接口只返回202，结果由消费者异步写入，所以读取都要轮询

const (
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
	// SettleTimeout 等待消费者处理完成的最长时间
	SettleTimeout = 15 * time.Second

	defaultSecret = "your-secret-key-change-in-production"
	defaultIssuer = "book-service"
)

// BaseURL API地址（含/api/v1）
var BaseURL string

// Token 测试操作人的访问Token
var Token string

// Actor 测试操作人
const Actor = "e2e-librarian"

// Response 统一响应结构（查询接口与错误）
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Result 一次HTTP调用的结果
type Result struct {
	Status int
	Body   []byte
}

// Envelope 解析统一响应结构
func (r *Result) Envelope(t *testing.T) *Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(r.Body, &resp), "解析JSON响应失败: %s", string(r.Body))
	return &resp
}

// Accepted 解析202响应中key对应的实体
func (r *Result) Accepted(t *testing.T, key string, out interface{}) {
	t.Helper()
	require.Equal(t, http.StatusAccepted, r.Status, string(r.Body))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(r.Body, &body))
	require.Contains(t, body, key)
	require.NoError(t, json.Unmarshal(body[key], out))
}

// Do 发送请求，body为nil时不带请求体
func Do(t *testing.T, method, url string, body interface{}, token string) *Result {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "JSON序列化失败")
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err, "创建HTTP请求失败")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")
	return &Result{Status: resp.StatusCode, Body: data}
}

// GetJSON 查询并解析data，返回HTTP状态码
func GetJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	res := Do(t, http.MethodGet, url, nil, "")
	if res.Status == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(res.Envelope(t).Data, out))
	}
	return res.Status
}

// WaitFor 轮询直到cond返回true
func WaitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, SettleTimeout, 200*time.Millisecond, msg)
}

// WaitForVersion 轮询url直到实体达到期望版本
func WaitForVersion(t *testing.T, url string, version int) {
	t.Helper()
	WaitFor(t, fmt.Sprintf("%s 未达到版本%d", url, version), func() bool {
		var m Metadata
		return GetJSON(t, url, &m) == http.StatusOK && m.Version == version
	})
}

// WaitForGone 轮询url直到返回404
func WaitForGone(t *testing.T, url string) {
	t.Helper()
	WaitFor(t, url+" 仍然存在", func() bool {
		return GetJSON(t, url, nil) == http.StatusNotFound
	})
}

// Unique 带时间戳的唯一名称
func Unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// Metadata 审计字段
type Metadata struct {
	Version   int    `json:"version"`
	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
}

// AuthorData 作者
type AuthorData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Metadata
}

// CategoryData 分类
type CategoryData struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Metadata
}

// BookData 图书
type BookData struct {
	ID        string       `json:"id"`
	ISBNCode  string       `json:"isbn_code"`
	AuthorIDs []string     `json:"author_ids"`
	Authors   []AuthorData `json:"authors"`
	Data      []struct {
		Title    string `json:"title"`
		Language string `json:"language"`
	} `json:"book_data"`
	Metadata
}

// BookList 图书检索结果
type BookList struct {
	List   []BookData `json:"list"`
	Source string     `json:"source"`
}

// BranchData 分馆
type BranchData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Metadata
}

// ExemplarData 馆藏
type ExemplarData struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	BranchID  string `json:"branch_id"`
	Available bool   `json:"available"`
	Room      int    `json:"room"`
	Metadata
}

// CreateAuthor 新建作者并等待写入
func CreateAuthor(t *testing.T, name string) AuthorData {
	t.Helper()
	var a AuthorData
	Do(t, http.MethodPost, BaseURL+"/authors", map[string]string{"name": name}, Token).Accepted(t, "author", &a)
	WaitForVersion(t, BaseURL+"/authors/"+a.ID, 1)
	return a
}

// CreateBook 新建图书并等待写入
func CreateBook(t *testing.T, authorID, title string) BookData {
	t.Helper()
	req := map[string]interface{}{
		"isbn_code":  Unique("978"),
		"edition":    1,
		"type":       "physical",
		"author_ids": []string{authorID},
		"book_data":  []map[string]string{{"title": title, "language": "en"}},
	}
	var b BookData
	Do(t, http.MethodPost, BaseURL+"/books", req, Token).Accepted(t, "book", &b)
	WaitForVersion(t, BaseURL+"/books/"+b.ID, 1)
	return b
}

// CreateBranch 新建分馆并等待分区创建
func CreateBranch(t *testing.T, name string) BranchData {
	t.Helper()
	var b BranchData
	Do(t, http.MethodPost, BaseURL+"/branches", map[string]string{"name": name}, Token).Accepted(t, "branch", &b)
	WaitForVersion(t, BaseURL+"/branches/"+b.ID, 1)
	return b
}
