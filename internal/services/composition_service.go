package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-maildir"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/rbarranco/nmail/internal/config"
	"github.com/rbarranco/nmail/internal/notmuch"
)

// ComposeStatus is the lifecycle state of a draft.
type ComposeStatus int

const (
	// StatusDraft is an editable draft that has not been handed off.
	StatusDraft ComposeStatus = iota
	// StatusEditing means the external editor holds the draft.
	StatusEditing
	// StatusSending means the transfer agent is running.
	StatusSending
	// StatusSent means the transfer agent accepted the message.
	StatusSent
	// StatusError means assembly or the transfer agent failed.
	StatusError
	// StatusTimedOut means the bounded wait on the transfer agent elapsed.
	// The outcome of the hand-off is unknown.
	StatusTimedOut
)

// String returns the status label shown in the compose view.
func (s ComposeStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusEditing:
		return "editing"
	case StatusSending:
		return "sending"
	case StatusSent:
		return "sent"
	case StatusError:
		return "error"
	case StatusTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// busy reports whether an external process currently owns the draft. Edit
// and send requests are rejected while busy; every other status is treated
// like a draft so a failed or even a sent message can be revised and resent.
func (s ComposeStatus) busy() bool {
	return s == StatusEditing || s == StatusSending
}

// ComposeEvent is emitted on every status transition. A single consumer (the
// UI loop) drains the service's event channel.
type ComposeEvent struct {
	SessionID string
	Status    ComposeStatus
	Err       error
}

// ComposeSession is one draft. Content is the editable text form: header
// lines, a blank line, then the body. "A:" pseudo-headers declare attachment
// file paths and are stripped during assembly.
type ComposeSession struct {
	ID        string
	ReplyToID string

	mu      sync.Mutex
	status  ComposeStatus
	content string
}

// Status returns the current lifecycle state.
func (cs *ComposeSession) Status() ComposeStatus {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.status
}

// Content returns the current draft text.
func (cs *ComposeSession) Content() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.content
}

// SetContent replaces the draft text. Rejected while an external process
// owns the draft.
func (cs *ComposeSession) SetContent(content string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.status.busy() {
		return fmt.Errorf("%w: session is %s", ErrInvalidState, cs.status)
	}
	cs.content = content
	return nil
}

// ComposeService manages draft sessions, the external editor, and the
// hand-off to the transfer agent.
type ComposeService struct {
	mu       sync.Mutex
	cfg      *config.Config
	client   Indexer
	tags     *TagService
	logger   *log.Logger
	sessions map[string]*ComposeSession
	events   chan ComposeEvent
}

// NewComposeService creates a compose service.
func NewComposeService(cfg *config.Config, client Indexer, tags *TagService) *ComposeService {
	return &ComposeService{
		cfg:      cfg,
		client:   client,
		tags:     tags,
		sessions: make(map[string]*ComposeSession),
		events:   make(chan ComposeEvent, 16),
	}
}

// SetLogger sets the logger for debug output.
func (s *ComposeService) SetLogger(logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Events returns the status transition channel. Exactly one goroutine should
// consume it.
func (s *ComposeService) Events() <-chan ComposeEvent {
	return s.events
}

func (s *ComposeService) logf(format string, args ...any) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()
	if logger != nil {
		logger.Printf(format, args...)
	}
}

func (s *ComposeService) emit(ev ComposeEvent) {
	select {
	case s.events <- ev:
	default:
		s.logf("compose: event channel full, dropping %s/%s", ev.SessionID, ev.Status)
	}
}

func (s *ComposeService) register(cs *ComposeSession) *ComposeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[cs.ID] = cs
	return cs
}

// Session returns a session by ID.
func (s *ComposeService) Session(id string) (*ComposeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: compose session %s", ErrNotFound, id)
	}
	return cs, nil
}

// NewCompose creates a blank draft addressed to nobody.
func (s *ComposeService) NewCompose() *ComposeSession {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", s.cfg.EmailAddress)
	b.WriteString("To: \n")
	b.WriteString("Subject: \n")
	b.WriteString("\n")
	return s.register(&ComposeSession{ID: uuid.NewString(), content: b.String()})
}

// NewReply creates a reply draft for a message. With all set, the original
// To and Cc recipients land on the Cc line, minus the configured own
// address. The original body is quoted below an attribution line.
func (s *ComposeService) NewReply(m *notmuch.Message, all bool) *ComposeSession {
	to, cc := replyRecipients(m, all, s.cfg.EmailAddress)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", s.cfg.EmailAddress)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", subjectPrefix("RE:", m.Header("Subject")))
	fmt.Fprintf(&b, "In-Reply-To: <%s>\n", m.ID)
	fmt.Fprintf(&b, "References: <%s>\n", m.ID)
	b.WriteString("\n\n")
	b.WriteString(quoteBody(m))

	return s.register(&ComposeSession{
		ID:        uuid.NewString(),
		ReplyToID: m.ID,
		content:   b.String(),
	})
}

// NewForward creates a forward draft. The original message file is attached
// whole when its path is known.
func (s *ComposeService) NewForward(m *notmuch.Message) *ComposeSession {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", s.cfg.EmailAddress)
	b.WriteString("To: \n")
	fmt.Fprintf(&b, "Subject: %s\n", subjectPrefix("FW:", m.Header("Subject")))
	if len(m.Filenames) > 0 {
		fmt.Fprintf(&b, "A: %s\n", m.Filenames[0])
	}
	b.WriteString("\n\n")
	b.WriteString(quoteBody(m))

	return s.register(&ComposeSession{ID: uuid.NewString(), content: b.String()})
}

// StartEdit writes the draft to a temp file, runs the external editor on it,
// and reads the result back. The call returns immediately; completion is
// reported on the event channel. Rejected while the draft is busy.
func (s *ComposeService) StartEdit(ctx context.Context, sessionID string) error {
	cs, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	if cs.status.busy() {
		cs.mu.Unlock()
		return fmt.Errorf("%w: session is %s", ErrInvalidState, cs.status)
	}
	cs.status = StatusEditing
	content := cs.content
	cs.mu.Unlock()
	s.emit(ComposeEvent{SessionID: cs.ID, Status: StatusEditing})

	go s.runEditor(ctx, cs, content)
	return nil
}

func (s *ComposeService) runEditor(ctx context.Context, cs *ComposeSession, content string) {
	finish := func(newContent string, err error) {
		cs.mu.Lock()
		if newContent != "" || err == nil {
			cs.content = newContent
		}
		cs.status = StatusDraft
		cs.mu.Unlock()
		s.emit(ComposeEvent{SessionID: cs.ID, Status: StatusDraft, Err: err})
	}

	tmp, err := os.CreateTemp("", "nmail-*.eml")
	if err != nil {
		finish("", fmt.Errorf("%w: %v", ErrProcess, err))
		return
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		finish("", fmt.Errorf("%w: %v", ErrProcess, err))
		return
	}
	tmp.Close()

	editor := s.cfg.EditorCommand
	if len(editor) == 0 {
		finish("", fmt.Errorf("%w: no editor configured", ErrInvalidInput))
		return
	}
	args := append(append([]string{}, editor[1:]...), path)
	cmd := exec.CommandContext(ctx, editor[0], args...)
	if err := cmd.Run(); err != nil {
		// Draft keeps its previous content when the editor fails.
		finish("", fmt.Errorf("%w: editor: %v", ErrProcess, err))
		return
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		finish("", fmt.Errorf("%w: %v", ErrProcess, err))
		return
	}
	s.logf("compose: %s edited (%d bytes)", cs.ID, len(edited))
	finish(string(edited), nil)
}

// StartSend assembles the draft into a MIME message and hands it to the
// transfer agent on stdin. The call returns immediately; the outcome arrives
// on the event channel. The wait on the agent is bounded by the configured
// send timeout; on timeout the process is abandoned, not killed, since the
// hand-off may still complete.
func (s *ComposeService) StartSend(ctx context.Context, sessionID string) error {
	cs, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	if cs.status.busy() {
		cs.mu.Unlock()
		return fmt.Errorf("%w: session is %s", ErrInvalidState, cs.status)
	}
	cs.status = StatusSending
	content := cs.content
	cs.mu.Unlock()
	s.emit(ComposeEvent{SessionID: cs.ID, Status: StatusSending})

	go s.runSend(ctx, cs, content)
	return nil
}

func (s *ComposeService) runSend(ctx context.Context, cs *ComposeSession, content string) {
	finish := func(status ComposeStatus, err error) {
		cs.mu.Lock()
		cs.status = status
		cs.mu.Unlock()
		if err != nil {
			s.logf("compose: %s send failed: %v", cs.ID, err)
		}
		s.emit(ComposeEvent{SessionID: cs.ID, Status: status, Err: err})
	}

	raw, skipped, err := assembleMessage(content)
	if err != nil {
		finish(StatusError, err)
		return
	}
	for _, path := range skipped {
		s.logf("compose: %s attachment skipped: %s", cs.ID, path)
	}

	agent := s.cfg.SendMailCommand
	if len(agent) == 0 {
		finish(StatusError, fmt.Errorf("%w: no transfer agent configured", ErrInvalidInput))
		return
	}

	// No context on the command: a timed-out agent is left to finish on its
	// own rather than killed mid-transfer.
	cmd := exec.Command(agent[0], agent[1:]...)
	cmd.Stdin = bytes.NewReader(raw)
	if err := cmd.Start(); err != nil {
		finish(StatusError, fmt.Errorf("%w: %v", ErrProcess, err))
		return
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			finish(StatusError, fmt.Errorf("%w: %s: %v", ErrProcess, agent[0], err))
			return
		}
	case <-time.After(s.cfg.GetSendTimeout()):
		finish(StatusTimedOut, fmt.Errorf("%w: %s still running after %s", ErrTimeout, agent[0], s.cfg.GetSendTimeout()))
		return
	}

	s.afterSend(ctx, cs, raw)
	finish(StatusSent, nil)
}

// afterSend records the sent message: maildir copy, replied tag on the
// parent, and a re-index. None of these failures demote the Sent status;
// the transfer agent already accepted the message.
func (s *ComposeService) afterSend(ctx context.Context, cs *ComposeSession, raw []byte) {
	if s.cfg.SentDir != "" {
		if err := writeSentCopy(s.cfg.SentDir, raw, cs.ReplyToID != ""); err != nil {
			s.logf("compose: %s sent copy failed: %v", cs.ID, err)
		}
	}

	if cs.ReplyToID != "" && s.tags != nil {
		if err := s.tags.Apply(ctx, notmuch.ScopeMessage, cs.ReplyToID, "+replied"); err != nil {
			s.logf("compose: %s replied tag failed: %v", cs.ID, err)
		}
	}

	if s.client != nil {
		if err := s.client.Index(ctx); err != nil {
			s.logf("compose: %s re-index failed: %v", cs.ID, err)
		}
	}

	// Replies already notified through the tag mutation above.
	if cs.ReplyToID == "" && s.tags != nil {
		s.tags.notify()
	}
}

// writeSentCopy delivers the raw message into the sent maildir, flagged seen
// and, for replies, answered.
func writeSentCopy(dir string, raw []byte, replied bool) error {
	d := maildir.Dir(dir)
	if err := d.Init(); err != nil {
		return fmt.Errorf("init maildir: %w", err)
	}
	flags := []maildir.Flag{maildir.FlagSeen}
	if replied {
		flags = append(flags, maildir.FlagReplied)
	}
	_, w, err := d.Create(flags)
	if err != nil {
		return fmt.Errorf("create maildir entry: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("write maildir entry: %w", err)
	}
	return w.Close()
}

// headerLine is one ordered draft header.
type headerLine struct {
	Key   string
	Value string
}

// parseDraft splits the editable draft text into ordered headers, attachment
// paths (from "A:" pseudo-headers), and the body.
func parseDraft(content string) ([]headerLine, []string, string, error) {
	headerPart, body, _ := strings.Cut(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")

	var headers []headerLine
	var attachments []string
	for _, line := range strings.Split(headerPart, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(headers) == 0 {
				return nil, nil, "", fmt.Errorf("%w: continuation line before any header", ErrInvalidInput)
			}
			headers[len(headers)-1].Value += " " + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, nil, "", fmt.Errorf("%w: header line %q", ErrInvalidInput, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if strings.EqualFold(key, "A") {
			if value != "" {
				attachments = append(attachments, value)
			}
			continue
		}
		headers = append(headers, headerLine{Key: key, Value: value})
	}
	return headers, attachments, body, nil
}

// assembleMessage turns the draft text into a full MIME message. Declared
// attachments that cannot be read are skipped and reported back; the send
// goes ahead without them.
func assembleMessage(content string) ([]byte, []string, error) {
	headers, attachments, body, err := parseDraft(content)
	if err != nil {
		return nil, nil, err
	}

	var h mail.Header
	hasDate := false
	for _, hl := range headers {
		if strings.EqualFold(hl.Key, "Date") {
			hasDate = true
		}
		h.Set(hl.Key, hl.Value)
	}
	if !hasDate {
		h.SetDate(time.Now())
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}

	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	if _, err := io.WriteString(tw, body); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	if err := tw.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}

	var skipped []string
	for _, path := range attachments {
		if err := attachFile(mw, path); err != nil {
			if errors.Is(err, ErrAttachmentRead) {
				skipped = append(skipped, path)
				continue
			}
			return nil, nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	return buf.Bytes(), skipped, nil
}

func attachFile(mw *mail.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAttachmentRead, path, err)
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.Set("Content-Type", ctype)
	ah.SetFilename(filepath.Base(path))

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		aw.Close()
		return fmt.Errorf("%w: %s: %v", ErrAttachmentRead, path, err)
	}
	return aw.Close()
}
