package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "blog.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "blog.test.invalid" }

func (invalidMessage) Validate() error {
	return errors.New("invalid")
}

type recordingLogger struct {
	entries []string
	fields  map[string]any
}

func (l *recordingLogger) record(msg string) { l.entries = append(l.entries, msg) }

func (l *recordingLogger) Trace(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Fatal(msg string, _ ...any) { l.record(msg) }

func (l *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	return l.WithFields(logging.ContextFields(ctx))
}

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if l.fields == nil {
		l.fields = map[string]any{}
	}
	for key, value := range fields {
		l.fields[key] = value
	}
	return l
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if TextCode(err) != commandValidationCode {
		t.Fatalf("expected validation text code, got %q", TextCode(err))
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if TextCode(err) != commandContextCanceled {
		t.Fatalf("expected cancelled text code, got %q", TextCode(err))
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, execErr) {
		t.Fatalf("expected original error to be preserved, got %v", err)
	}
}

func TestHandlerTagsDomainErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		code       string
		validation bool
	}{
		{name: "missing post", err: &posts.NotFoundError{Slug: "ghost"}, code: postNotFoundCode},
		{name: "unresolved path", err: fmt.Errorf("%w: %q", generator.ErrDeclaredPathUnresolved, "ghost"), code: pathUnresolvedCode},
		{name: "undeclared path", err: fmt.Errorf("%w: %q", generator.ErrUndeclaredPath, "ghost"), code: pathUndeclaredCode, validation: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler[testMessage](func(context.Context, testMessage) error {
				return tc.err
			})
			err := h.Execute(context.Background(), testMessage{})
			category := goerrors.CategoryCommand
			if tc.validation {
				category = goerrors.CategoryValidation
			}
			if !goerrors.IsCategory(err, category) {
				t.Fatalf("expected %v category, got %v", category, err)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected original error to be preserved, got %v", err)
			}
			if TextCode(err) != tc.code {
				t.Fatalf("expected text code %s, got %q", tc.code, TextCode(err))
			}
		})
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
	if TextCode(err) != commandContextTimeout {
		t.Fatalf("expected timeout text code, got %q", TextCode(err))
	}
}

func TestHandlerLogsWithMessageFields(t *testing.T) {
	logger := &recordingLogger{}
	h := NewHandler[testMessage](
		func(context.Context, testMessage) error { return nil },
		WithLogger[testMessage](logger),
		WithOperation[testMessage]("test.run"),
		WithMessageFields(func(testMessage) map[string]any {
			return map[string]any{"dry_run": true}
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if logger.fields["operation"] != "test.run" || logger.fields["dry_run"] != true {
		t.Fatalf("unexpected fields: %#v", logger.fields)
	}
	if len(logger.entries) != 2 || logger.entries[1] != "command.execute.success" {
		t.Fatalf("unexpected log entries: %v", logger.entries)
	}
}

func TestHandlerCarriesFieldsOnContext(t *testing.T) {
	var buf bytes.Buffer
	provider, err := console.NewProvider(console.Options{Writer: &buf, Level: "debug"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	var seen map[string]any
	h := NewHandler[testMessage](
		func(ctx context.Context, _ testMessage) error {
			seen = logging.ContextFields(ctx)
			return nil
		},
		WithLogger[testMessage](provider.GetLogger("blog.commands")),
		WithOperation[testMessage]("test.run"),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if seen["command"] != "blog.test.message" || seen["operation"] != "test.run" {
		t.Fatalf("expected command fields on context, got %#v", seen)
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "operation=test.run") {
			t.Fatalf("expected context fields in log line, got %q", line)
		}
	}
}
