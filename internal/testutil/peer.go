package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/rpsgame/internal/protocol"
)

// ScriptedPeer is an in-memory protocol.Peer. Prompts are answered from a
// queue of replies; with the queue empty a prompt blocks until Reply,
// Disconnect, or context cancellation.
type ScriptedPeer struct {
	username string
	replies  chan string

	mu       sync.Mutex
	messages []string
	prompts  []string

	done      chan struct{}
	closeOnce sync.Once
}

var _ protocol.Peer = (*ScriptedPeer)(nil)

// NewScriptedPeer creates a peer with the given replies queued
func NewScriptedPeer(username string, replies ...string) *ScriptedPeer {
	p := &ScriptedPeer{
		username: username,
		replies:  make(chan string, 64),
		done:     make(chan struct{}),
	}
	for _, r := range replies {
		p.replies <- r
	}
	return p
}

func (p *ScriptedPeer) Username() string {
	return p.username
}

func (p *ScriptedPeer) Send(text string) error {
	select {
	case <-p.done:
		return protocol.ErrDisconnected
	default:
	}
	p.mu.Lock()
	p.messages = append(p.messages, text)
	p.mu.Unlock()
	return nil
}

func (p *ScriptedPeer) Prompt(ctx context.Context, text string) (string, error) {
	select {
	case <-p.done:
		return "", protocol.ErrDisconnected
	default:
	}
	p.mu.Lock()
	p.prompts = append(p.prompts, text)
	p.mu.Unlock()

	select {
	case reply := <-p.replies:
		return reply, nil
	case <-p.done:
		return "", protocol.ErrDisconnected
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *ScriptedPeer) Done() <-chan struct{} {
	return p.done
}

// Reply queues an answer for a current or future prompt
func (p *ScriptedPeer) Reply(text string) {
	p.replies <- text
}

// Disconnect simulates the connection dropping
func (p *ScriptedPeer) Disconnect() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Messages returns every non-prompt message sent so far
func (p *ScriptedPeer) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

// Prompts returns every prompt text sent so far
func (p *ScriptedPeer) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// Received reports whether any message contains substr
func (p *ScriptedPeer) Received(substr string) bool {
	for _, m := range p.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// PromptCount returns the number of prompts sent so far
func (p *ScriptedPeer) PromptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}
