package sender

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts one session without STARTTLS or AUTH and hands back the
// DATA payload.
func fakeSMTP(t *testing.T) (port int, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 localhost ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250-localhost")
				reply("250 8BITMIME")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 go ahead")
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
				out <- b.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("500 unknown")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, out
}

func TestSMTPSender_SendEmail(t *testing.T) {
	port, data := fakeSMTP(t)
	s, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, Username: "store@x.com", Password: "pw", Timeout: 5 * time.Second})
	require.NoError(t, err)

	res, err := s.SendEmail(context.Background(), `"JP Store" <store@x.com>`, "buyer@y.com", "🎉 VIRTUAL INVOICE #JPSTORE-1 - JP STORE 🎉", "<p>hola</p>")
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)

	select {
	case msg := <-data:
		assert.Contains(t, msg, "To: buyer@y.com\r\n")
		assert.Contains(t, msg, "Subject: =?utf-8?q?")
		assert.Contains(t, msg, "Content-Type: text/html")
		assert.True(t, strings.HasSuffix(msg, "<p>hola</p>\r\n"))
	case <-time.After(5 * time.Second):
		t.Fatal("no DATA received")
	}
}

func TestSMTPSender_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, Username: "u", Password: "p", Timeout: time.Second})
	require.NoError(t, err)
	_, err = s.SendEmail(context.Background(), "u", "to@x.com", "s", "b")
	assert.Error(t, err)
}

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Host: "h", Port: 0, Username: "u", Password: "p"})
	assert.Error(t, err)
	_, err = NewSMTPSender(SMTPConfig{Port: 465, Username: "u", Password: "p"})
	assert.Error(t, err)
}

func TestAddressOf(t *testing.T) {
	assert.Equal(t, "store@x.com", addressOf(`"JP Store" <store@x.com>`))
	assert.Equal(t, "store@x.com", addressOf("store@x.com"))
}
