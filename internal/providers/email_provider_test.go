package providers

import (
	"bufio"
	"context"
	"errors"
	"mime"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gatehouse/internal/constants"
)

// smtpSink is a minimal relay that accepts every command and records the
// DATA of each message.
type smtpSink struct {
	host string
	port int

	mu       sync.Mutex
	messages []string
}

func newSMTPSink(t *testing.T) *smtpSink {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	sink := &smtpSink{host: host, port: p}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go sink.serve(conn)
		}
	}()
	return sink
}

func (s *smtpSink) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(lines ...string) {
		for _, l := range lines {
			_, _ = conn.Write([]byte(l + "\r\n"))
		}
	}

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			reply("250-localhost", "250 8BITMIME")
		case cmd == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.messages = append(s.messages, b.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func (s *smtpSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// headerValue returns the unfolded value of the named header.
func headerValue(msg, name string) string {
	head, _, _ := strings.Cut(msg, "\r\n\r\n")
	head = strings.NewReplacer("\r\n ", " ", "\r\n\t", " ").Replace(head)
	for _, line := range strings.Split(head, "\r\n") {
		if k, v, ok := strings.Cut(line, ":"); ok && strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func TestSMTPMailer_DeliversOnceWithEncodedSubject(t *testing.T) {
	sink := newSMTPSink(t)
	m := NewSMTPMailer(sink.host, sink.port, "", "", "noreply@example.com")
	subject := "[Café RP] Votre candidature a été acceptée"

	if err := m.Send(context.Background(), "player@example.com", subject, "Bienvenue!\n"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := sink.received()
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}

	raw := headerValue(msgs[0], "Subject")
	for _, r := range raw {
		if r > 127 {
			t.Fatalf("Expected an ASCII-only Subject header, got %q", raw)
		}
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(raw)
	if err != nil {
		t.Fatalf("Failed to decode subject %q: %v", raw, err)
	}
	if decoded != subject {
		t.Errorf("Expected subject %q, got %q", subject, decoded)
	}
	if !strings.Contains(headerValue(msgs[0], "To"), "player@example.com") {
		t.Errorf("Unexpected To header: %q", headerValue(msgs[0], "To"))
	}
}

func TestSMTPMailer_RelayDownIsProviderError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	_ = ln.Close()
	p, _ := strconv.Atoi(port)

	m := NewSMTPMailer("127.0.0.1", p, "", "", "noreply@example.com")
	err = m.Send(context.Background(), "player@example.com", "hi", "body")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
}

func TestSMTPMailer_RejectsBadRecipient(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "noreply@example.com")
	err := m.Send(context.Background(), "not an address", "hi", "body")
	if !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "noreply@test")
	err := m.Send(context.Background(), "a@test\r\nBcc: x@test", "hi", "body")
	if !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestSMTPMailer_Disabled(t *testing.T) {
	m := NewSMTPMailer("", 25, "", "", "")
	if err := m.Send(context.Background(), "a@test", "hi", "body"); !errors.Is(err, constants.ErrEmailDisabled) {
		t.Errorf("Expected ErrEmailDisabled, got %v", err)
	}
}
