// Package commandtest 命令发布的测试替身
package commandtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xiebiao/bookcatalog/internal/application/command"
)

// Message 一条被记录的命令
type Message struct {
	RoutingKey string
	Payload    []byte
}

// Publisher 记录发布的命令，可注入错误
type Publisher struct {
	mu        sync.Mutex
	Published []Message
	Notified  []Message

	PublishErr error
	NotifyErr  error
}

func (p *Publisher) Publish(_ context.Context, kind command.Kind, payload any) error {
	if p.PublishErr != nil {
		return p.PublishErr
	}
	return p.record(&p.Published, kind.RoutingKey(), payload)
}

func (p *Publisher) Notify(_ context.Context, kind command.Kind, payload any) error {
	if p.NotifyErr != nil {
		return p.NotifyErr
	}
	return p.record(&p.Notified, kind.ExternalRoutingKey(), payload)
}

func (p *Publisher) record(dst *[]Message, routingKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	*dst = append(*dst, Message{RoutingKey: routingKey, Payload: data})
	return nil
}

// RoutingKeys 已发布命令的路由键
func (p *Publisher) RoutingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return keys(p.Published)
}

// NotifiedKeys 已发布通知的路由键
func (p *Publisher) NotifiedKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return keys(p.Notified)
}

// Last 最后一条命令解码到v
func (p *Publisher) Last(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Unmarshal(p.Published[len(p.Published)-1].Payload, v)
}

func keys(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.RoutingKey
	}
	return out
}
