package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	contractx "github.com/apexfin/account-agent/agent/contract"
	statex "github.com/apexfin/account-agent/agent/state"
	toolx "github.com/apexfin/account-agent/agent/tool"
)

// scriptedModel replays a fixed sequence of responses and records every
// request it receives.
type scriptedModel struct {
	mu       sync.Mutex
	script   []func() (contractx.ModelResponse, error)
	requests []contractx.CompletionRequest
}

func (m *scriptedModel) Complete(_ context.Context, req contractx.CompletionRequest) (contractx.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return contractx.ModelResponse{}, errors.New("script exhausted")
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next()
}

func reply(text string) func() (contractx.ModelResponse, error) {
	return func() (contractx.ModelResponse, error) {
		return contractx.ModelResponse{Content: text}, nil
	}
}

func toolCalls(calls ...contractx.ToolCall) func() (contractx.ModelResponse, error) {
	return func() (contractx.ModelResponse, error) {
		return contractx.ModelResponse{ToolCalls: calls}, nil
	}
}

func fail(err error) func() (contractx.ModelResponse, error) {
	return func() (contractx.ModelResponse, error) {
		return contractx.ModelResponse{}, err
	}
}

// recordingDispatcher returns a canned payload per tool name.
type recordingDispatcher struct {
	mu       sync.Mutex
	payloads map[string]contractx.ToolResult
	calls    []contractx.ToolCall
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ *statex.Session, call contractx.ToolCall) contractx.ToolResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	if r, ok := d.payloads[call.Name]; ok {
		r.CallID = call.ID
		r.Tool = call.Name
		return r
	}
	return contractx.ToolResult{
		CallID:  call.ID,
		Tool:    call.Name,
		Payload: json.RawMessage(`{}`),
	}
}

func newOrchestrator(t *testing.T, model contractx.ChatModel, tools Dispatcher, opts ...Option) (*Orchestrator, statex.Store) {
	t.Helper()
	store := statex.NewMemoryStore()
	if tools == nil {
		tools = &recordingDispatcher{}
	}
	o, err := New(store, model, tools, "You help customers open accounts.", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o, store
}

func TestProcessMessagePlainReply(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		reply("Hello! Let's open your checking account."),
	}}
	o, store := newOrchestrator(t, model, nil)

	res, err := o.ProcessMessage(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Reply != "Hello! Let's open your checking account." {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if res.SessionID == "" {
		t.Fatal("expected a session id to be assigned")
	}
	if res.Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v", res.Metadata)
	}

	sess, ok := store.Get(res.SessionID)
	if !ok {
		t.Fatal("session not stored")
	}
	if got := len(sess.Turns); got != 2 {
		t.Fatalf("expected 2 turns, got %d", got)
	}
	if sess.Turns[0].Role != contractx.RoleUser || sess.Turns[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected roles %q, %q", sess.Turns[0].Role, sess.Turns[1].Role)
	}

	if len(model.requests) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(model.requests))
	}
	req := model.requests[0]
	if req.System == "" || len(req.Tools) != 3 {
		t.Fatalf("expected system prompt and 3 tools, got system=%q tools=%d", req.System, len(req.Tools))
	}
}

func TestProcessMessageToolLoop(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		toolCalls(contractx.ToolCall{
			ID:        "call-1",
			Name:      toolx.ToolValidateField,
			Arguments: json.RawMessage(`{"field":"firstName","value":"Ada"}`),
		}),
		toolCalls(contractx.ToolCall{
			ID:        "call-2",
			Name:      toolx.ToolValidateField,
			Arguments: json.RawMessage(`{"field":"lastName","value":"Lovelace"}`),
		}),
		reply("Thanks Ada! What's your date of birth?"),
	}}
	tools := &recordingDispatcher{payloads: map[string]contractx.ToolResult{
		toolx.ToolValidateField: {Payload: json.RawMessage(`{"valid":true}`)},
	}}
	o, store := newOrchestrator(t, model, tools)

	res, err := o.ProcessMessage(context.Background(), "s-loop", "Ada Lovelace")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Reply != "Thanks Ada! What's your date of birth?" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected 2 tool dispatches, got %d", len(tools.calls))
	}

	sess, _ := store.Get("s-loop")
	// user, assistant(tool), tool, assistant(tool), tool, assistant(reply)
	if got := len(sess.Turns); got != 6 {
		t.Fatalf("expected 6 turns, got %d", got)
	}
	toolTurn := sess.Turns[2]
	if toolTurn.Role != contractx.RoleTool || toolTurn.ToolCallID != "call-1" || toolTurn.ToolName != toolx.ToolValidateField {
		t.Fatalf("unexpected tool turn %+v", toolTurn)
	}
	if toolTurn.Content != `{"valid":true}` {
		t.Fatalf("tool payload not recorded as content: %q", toolTurn.Content)
	}

	// Later rounds must see the tool results.
	second := model.requests[1]
	if second.Turns[len(second.Turns)-1].Role != contractx.RoleTool {
		t.Fatal("second model call did not end with a tool turn")
	}
}

func TestProcessMessageLoopCap(t *testing.T) {
	t.Parallel()

	endless := func() (contractx.ModelResponse, error) {
		return contractx.ModelResponse{ToolCalls: []contractx.ToolCall{{
			ID:        "call-x",
			Name:      toolx.ToolShowAgreement,
			Arguments: json.RawMessage(`{}`),
		}}}, nil
	}
	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		endless, endless, endless, endless, endless,
	}}
	o, store := newOrchestrator(t, model, nil, WithMaxToolRounds(3))

	res, err := o.ProcessMessage(context.Background(), "s-cap", "keep going")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Reply != fallbackReply {
		t.Fatalf("expected fallback reply, got %q", res.Reply)
	}
	if len(model.requests) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(model.requests))
	}

	sess, _ := store.Get("s-cap")
	last := sess.Turns[len(sess.Turns)-1]
	if last.Role != contractx.RoleAssistant || last.Content != fallbackReply {
		t.Fatalf("fallback not recorded in transcript: %+v", last)
	}
}

func TestProcessMessageModelFailure(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		fail(fmt.Errorf("%w: upstream 500", contractx.ErrModelInvoke)),
		reply("Back online."),
	}}
	o, store := newOrchestrator(t, model, nil)

	_, err := o.ProcessMessage(context.Background(), "s-fail", "hello?")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}

	// The failed turn keeps the user's message so a retry has context.
	sess, _ := store.Get("s-fail")
	if got := len(sess.Turns); got != 1 {
		t.Fatalf("expected 1 turn after failure, got %d", got)
	}
	if sess.Turns[0].Role != contractx.RoleUser {
		t.Fatalf("expected preserved user turn, got %q", sess.Turns[0].Role)
	}

	res, err := o.ProcessMessage(context.Background(), "s-fail", "hello again")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Reply != "Back online." {
		t.Fatalf("unexpected retry reply %q", res.Reply)
	}
}

func TestProcessMessageEmptyAssistantMessage(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		reply("   "),
	}}
	o, _ := newOrchestrator(t, model, nil)

	_, err := o.ProcessMessage(context.Background(), "", "hi")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestProcessMessageAccountMetadata(t *testing.T) {
	t.Parallel()

	created, err := json.Marshal(toolx.CreateAccountOutput{
		Success:       true,
		AccountNumber: "1234567890",
		RoutingNumber: "021012345",
		AccountType:   "Checking",
		CustomerName:  "Ada Lovelace",
		Message:       "Account created successfully!",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		toolCalls(contractx.ToolCall{
			ID:        "call-create",
			Name:      toolx.ToolCreateAccount,
			Arguments: json.RawMessage(`{"agreedToTerms":true}`),
		}),
		reply("Your account is ready!"),
	}}
	tools := &recordingDispatcher{payloads: map[string]contractx.ToolResult{
		toolx.ToolCreateAccount: {Payload: created},
	}}
	o, _ := newOrchestrator(t, model, tools)

	res, err := o.ProcessMessage(context.Background(), "s-meta", "I agree")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Metadata == nil {
		t.Fatal("expected account metadata")
	}
	if !res.Metadata.AccountCreated || res.Metadata.AccountNumber != "1234567890" {
		t.Fatalf("unexpected metadata %+v", res.Metadata)
	}
	if res.Metadata.RoutingNumber != "021012345" || res.Metadata.AccountType != "Checking" {
		t.Fatalf("unexpected metadata %+v", res.Metadata)
	}
}

func TestProcessMessageFailedCreateNoMetadata(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{script: []func() (contractx.ModelResponse, error){
		toolCalls(contractx.ToolCall{
			ID:        "call-create",
			Name:      toolx.ToolCreateAccount,
			Arguments: json.RawMessage(`{}`),
		}),
		reply("A few details are still missing."),
	}}
	tools := &recordingDispatcher{payloads: map[string]contractx.ToolResult{
		toolx.ToolCreateAccount: {
			Payload: json.RawMessage(`{"success":false,"error":"application is incomplete"}`),
			IsError: true,
		},
	}}
	o, _ := newOrchestrator(t, model, tools)

	res, err := o.ProcessMessage(context.Background(), "s-nometa", "create it")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v", res.Metadata)
	}
}

func TestProcessMessageEmptyMessage(t *testing.T) {
	t.Parallel()

	o, store := newOrchestrator(t, &scriptedModel{}, nil)
	_, err := o.ProcessMessage(context.Background(), "", "   ")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("empty message must not create a session, store has %d", store.Len())
	}
}

func TestProcessMessageSerializesPerSession(t *testing.T) {
	t.Parallel()

	const workers = 8
	script := make([]func() (contractx.ModelResponse, error), workers)
	for i := range script {
		script[i] = reply("ok")
	}
	model := &scriptedModel{script: script}
	o, store := newOrchestrator(t, model, nil)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := o.ProcessMessage(context.Background(), "s-conc", fmt.Sprintf("message %d", n)); err != nil {
				t.Errorf("worker %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	sess, _ := store.Get("s-conc")
	if got := len(sess.Turns); got != workers*2 {
		t.Fatalf("expected %d turns, got %d", workers*2, got)
	}
	// Turns must strictly alternate user/assistant when turns are serialized.
	for i, turn := range sess.Turns {
		want := contractx.RoleUser
		if i%2 == 1 {
			want = contractx.RoleAssistant
		}
		if turn.Role != want {
			t.Fatalf("turn %d: expected role %q, got %q", i, want, turn.Role)
		}
	}
	if !strings.HasPrefix(sess.Turns[0].Content, "message ") {
		t.Fatalf("unexpected first turn content %q", sess.Turns[0].Content)
	}
}
