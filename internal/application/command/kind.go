// Package command 写命令的种类、处理器与发布接口
//
// 命令种类是封闭集合：5种实体 × {upsert, deletion}。
// 路由键格式为 <entity>.<action>，写入成功后对外通知使用 external.<entity>.<action>。
package command

import "strings"

// Kind 命令种类
type Kind int

const (
	BookUpsert Kind = iota + 1
	BookDeletion
	AuthorUpsert
	AuthorDeletion
	CategoryUpsert
	CategoryDeletion
	BranchUpsert
	BranchDeletion
	ExemplarUpsert
	ExemplarDeletion
)

// 实体名
const (
	EntityBook     = "book"
	EntityAuthor   = "author"
	EntityCategory = "book_category"
	EntityBranch   = "branch"
	EntityExemplar = "physical_exemplar"
)

// 动作名
const (
	ActionUpsert   = "upsert"
	ActionDeletion = "deletion"
)

// ExternalPrefix 对外通知路由键前缀
const ExternalPrefix = "external."

var kindNames = map[Kind][2]string{
	BookUpsert:       {EntityBook, ActionUpsert},
	BookDeletion:     {EntityBook, ActionDeletion},
	AuthorUpsert:     {EntityAuthor, ActionUpsert},
	AuthorDeletion:   {EntityAuthor, ActionDeletion},
	CategoryUpsert:   {EntityCategory, ActionUpsert},
	CategoryDeletion: {EntityCategory, ActionDeletion},
	BranchUpsert:     {EntityBranch, ActionUpsert},
	BranchDeletion:   {EntityBranch, ActionDeletion},
	ExemplarUpsert:   {EntityExemplar, ActionUpsert},
	ExemplarDeletion: {EntityExemplar, ActionDeletion},
}

var byRoutingKey = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n[0]+"."+n[1]] = k
	}
	return m
}()

// All 全部命令种类（按定义顺序）
func All() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := BookUpsert; k <= ExemplarDeletion; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// RoutingKeys 全部内部路由键，用于绑定队列
func RoutingKeys() []string {
	kinds := All()
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = k.RoutingKey()
	}
	return keys
}

// ParseKind 解析内部路由键，external.*和未知键返回false
func ParseKind(routingKey string) (Kind, bool) {
	k, ok := byRoutingKey[routingKey]
	return k, ok
}

// Valid 是否为已定义的种类
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Entity 实体名
func (k Kind) Entity() string {
	return kindNames[k][0]
}

// Action 动作名
func (k Kind) Action() string {
	return kindNames[k][1]
}

// IsDeletion 是否为删除命令
func (k Kind) IsDeletion() bool {
	return k.Action() == ActionDeletion
}

// RoutingKey 内部路由键 <entity>.<action>
func (k Kind) RoutingKey() string {
	if !k.Valid() {
		return ""
	}
	return k.Entity() + "." + k.Action()
}

// ExternalRoutingKey 对外通知路由键 external.<entity>.<action>
func (k Kind) ExternalRoutingKey() string {
	if !k.Valid() {
		return ""
	}
	return ExternalPrefix + k.RoutingKey()
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return k.RoutingKey()
}

// IsExternal 是否为对外通知路由键
func IsExternal(routingKey string) bool {
	return strings.HasPrefix(routingKey, ExternalPrefix)
}
