package service_test

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikedadada/go-onionctl/internal/infrastructure/service"
)

// startControlPort accepts one connection, answers PROTOCOLINFO with the
// given AUTH line and replies to AUTHENTICATE with authReply. The received
// AUTHENTICATE line is sent on the returned channel.
func startControlPort(t *testing.T, network, addr, authLine, authReply string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen(network, addr)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, _ := r.ReadString('\n')
		if strings.TrimSpace(line) != "PROTOCOLINFO 1" {
			fmt.Fprintf(conn, "510 Unrecognized command\r\n")
			return
		}
		fmt.Fprintf(conn, "250-PROTOCOLINFO 1\r\n%s\r\n250-VERSION Tor=\"0.4.8.9\"\r\n250 OK\r\n", authLine)
		line, _ = r.ReadString('\n')
		got <- strings.TrimRight(line, "\r\n")
		fmt.Fprintf(conn, "%s\r\n", authReply)
		// Hold the connection until the client closes it.
		r.ReadString('\n')
	}()
	return ln.Addr().String(), got
}

func TestControlPortDialer_AuthMethods(t *testing.T) {
	cookie := []byte{0xde, 0xad, 0xbe, 0xef}
	cookiePath := filepath.Join(t.TempDir(), "control_auth_cookie")
	require.NoError(t, os.WriteFile(cookiePath, cookie, 0o600))

	tests := []struct {
		name     string
		authLine string
		auth     service.ControlAuth
		want     string
	}{
		{"null", "250-AUTH METHODS=NULL", service.ControlAuth{}, "AUTHENTICATE"},
		{"advertised cookie", `250-AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE="` + cookiePath + `"`, service.ControlAuth{}, "AUTHENTICATE " + hex.EncodeToString(cookie)},
		{"configured cookie", "250-AUTH METHODS=COOKIE", service.ControlAuth{CookieFile: cookiePath}, "AUTHENTICATE deadbeef"},
		{"password", "250-AUTH METHODS=HASHEDPASSWORD", service.ControlAuth{Password: `se"cret`}, `AUTHENTICATE "se\"cret"`},
		{"password preferred", "250-AUTH METHODS=NULL,HASHEDPASSWORD", service.ControlAuth{Password: "pw"}, `AUTHENTICATE "pw"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, got := startControlPort(t, "tcp", "127.0.0.1:0", tt.authLine, "250 OK")
			d := service.NewControlDialer(addr, tt.auth, 5*time.Second, nil)

			ch, err := d.Dial(context.Background())
			require.NoError(t, err)
			defer ch.Close()
			assert.Equal(t, tt.want, <-got)
		})
	}
}

func TestControlPortDialer_AuthRejected(t *testing.T) {
	addr, _ := startControlPort(t, "tcp", "127.0.0.1:0", "250-AUTH METHODS=NULL", "515 Authentication failed")
	d := service.NewControlDialer(addr, service.ControlAuth{}, 5*time.Second, nil)

	_, err := d.Dial(context.Background())
	var ce *service.ControlError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, 515, ce.Code)
	assert.Equal(t, "Authentication failed", ce.Text)
}

func TestControlPortDialer_NoUsableMethod(t *testing.T) {
	addr, _ := startControlPort(t, "tcp", "127.0.0.1:0", "250-AUTH METHODS=HASHEDPASSWORD", "250 OK")
	d := service.NewControlDialer(addr, service.ControlAuth{}, 5*time.Second, nil)

	_, err := d.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable control auth method")
}

func TestControlPortDialer_UnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "control.sock")
	_, got := startControlPort(t, "unix", sock, "250-AUTH METHODS=NULL", "250 OK")
	d := service.NewControlDialer("unix:"+sock, service.ControlAuth{}, 5*time.Second, nil)

	ch, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()
	assert.Equal(t, "AUTHENTICATE", <-got)
}

func TestControlPortDialer_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	d := service.NewControlDialer(addr, service.ControlAuth{}, time.Second, nil)
	_, err = d.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial control port")
}
