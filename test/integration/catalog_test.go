package integration

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuthorLifecycle 新建 → 修改 → 旧版本修改被拒绝 → 删除
func TestAuthorLifecycle(t *testing.T) {
	a := CreateAuthor(t, Unique("author"))
	authorURL := BaseURL + "/authors/" + a.ID

	var stored AuthorData
	require.Equal(t, http.StatusOK, GetJSON(t, authorURL, &stored))
	assert.Equal(t, Actor, stored.CreatedBy)

	t.Run("修改后版本加一", func(t *testing.T) {
		res := Do(t, http.MethodPut, authorURL, map[string]interface{}{"name": a.Name + " Jr.", "version": 1}, Token)
		require.Equal(t, http.StatusAccepted, res.Status, string(res.Body))
		WaitForVersion(t, authorURL, 2)

		var updated AuthorData
		require.Equal(t, http.StatusOK, GetJSON(t, authorURL, &updated))
		assert.Equal(t, a.Name+" Jr.", updated.Name)
		assert.Equal(t, Actor, updated.CreatedBy)
	})

	t.Run("旧版本返回409", func(t *testing.T) {
		res := Do(t, http.MethodPut, authorURL, map[string]interface{}{"name": "stale", "version": 1}, Token)
		assert.Equal(t, http.StatusConflict, res.Status)
		assert.Equal(t, 40901, res.Envelope(t).Code)
	})

	t.Run("未登录不能修改", func(t *testing.T) {
		res := Do(t, http.MethodPut, authorURL, map[string]interface{}{"name": "anon", "version": 2}, "")
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	})

	t.Run("删除", func(t *testing.T) {
		res := Do(t, http.MethodDelete, authorURL, nil, Token)
		require.Equal(t, http.StatusAccepted, res.Status)
		WaitForGone(t, authorURL)
	})
}

// TestBookSearch 写入的图书出现在检索结果中，删除后消失
func TestBookSearch(t *testing.T) {
	a := CreateAuthor(t, Unique("writer"))
	title := Unique("Left Hand of Darkness")
	b := CreateBook(t, a.ID, title)

	var stored BookData
	require.Equal(t, http.StatusOK, GetJSON(t, BaseURL+"/books/"+b.ID, &stored))
	require.Len(t, stored.Authors, 1)
	assert.Equal(t, a.Name, stored.Authors[0].Name)

	query := BaseURL + "/books?" + url.Values{"title": {title}}.Encode()
	contains := func() bool {
		var list BookList
		if GetJSON(t, query, &list) != http.StatusOK {
			return false
		}
		for _, item := range list.List {
			if item.ID == b.ID {
				return true
			}
		}
		return false
	}
	WaitFor(t, "检索结果中没有新图书", contains)

	res := Do(t, http.MethodDelete, BaseURL+"/books/"+b.ID, nil, Token)
	require.Equal(t, http.StatusAccepted, res.Status)
	WaitForGone(t, BaseURL+"/books/"+b.ID)
	WaitFor(t, "删除的图书仍在检索结果中", func() bool { return !contains() })
}

// TestBookRequiresKnownAuthor 引用不存在的作者在发布前被拒绝
func TestBookRequiresKnownAuthor(t *testing.T) {
	req := map[string]interface{}{
		"isbn_code":  Unique("978"),
		"edition":    1,
		"type":       "ebook",
		"author_ids": []string{"0190f0a2-0000-7000-8000-000000000000"},
	}
	res := Do(t, http.MethodPost, BaseURL+"/books", req, Token)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

// TestBranchExemplars 分馆创建分区，馆藏写入分区，删除分馆连同馆藏一起删除
func TestBranchExemplars(t *testing.T) {
	branch := CreateBranch(t, Unique("branch"))
	a := CreateAuthor(t, Unique("shelved"))
	b := CreateBook(t, a.ID, Unique("Dispossessed"))

	req := map[string]interface{}{
		"book_id":   b.ID,
		"branch_id": branch.ID,
		"available": true,
		"room":      2,
		"floor":     1,
		"bookshelf": 14,
	}
	var e ExemplarData
	Do(t, http.MethodPut, BaseURL+"/exemplars", req, Token).Accepted(t, "exemplar", &e)

	findURL := BaseURL + "/exemplars?" + url.Values{"book_id": {b.ID}, "branch_id": {branch.ID}}.Encode()
	WaitFor(t, "馆藏未写入", func() bool {
		var found ExemplarData
		return GetJSON(t, findURL, &found) == http.StatusOK && found.Room == 2
	})

	res := Do(t, http.MethodDelete, BaseURL+"/branches/"+branch.ID, nil, Token)
	require.Equal(t, http.StatusAccepted, res.Status)
	WaitForGone(t, BaseURL+"/branches/"+branch.ID)
	WaitForGone(t, findURL)
}
