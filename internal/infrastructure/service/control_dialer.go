package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	useSvc "ikedadada/go-onionctl/internal/usecase/service"
)

const unixPrefix = "unix:"

// ControlAuth holds the credentials offered to the control port.
type ControlAuth struct {
	Password   string
	CookieFile string // overrides the path the daemon advertises
}

// ControlPortDialer opens and authenticates control connections. Address
// is host:port or unix:/path.
type ControlPortDialer struct {
	Address string
	Auth    ControlAuth
	Timeout time.Duration
	logger  *slog.Logger
}

// NewControlDialer returns a ControlDialer for the given control port.
func NewControlDialer(address string, auth ControlAuth, timeout time.Duration, logger *slog.Logger) useSvc.ControlDialer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ControlPortDialer{Address: address, Auth: auth, Timeout: timeout, logger: logger}
}

func (d *ControlPortDialer) Dial(ctx context.Context) (useSvc.ControlChannel, error) {
	network, addr := "tcp", d.Address
	if strings.HasPrefix(addr, unixPrefix) {
		network, addr = "unix", strings.TrimPrefix(addr, unixPrefix)
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial control port %s: %w", d.Address, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}
	ch := NewLineChannel(conn)
	if err := d.authenticate(ch); err != nil {
		ch.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	d.logger.Debug("control port authenticated", "address", d.Address)
	return ch, nil
}

// authenticate runs PROTOCOLINFO and answers with the strongest method
// both sides support.
func (d *ControlPortDialer) authenticate(ch *LineChannel) error {
	if err := ch.WriteLine("PROTOCOLINFO 1"); err != nil {
		return fmt.Errorf("protocolinfo: %w", err)
	}
	reply, err := readReply(ch)
	if err != nil {
		return fmt.Errorf("protocolinfo: %w", err)
	}
	info := parseProtocolInfo(reply)

	cmd, err := d.authCommand(info)
	if err != nil {
		return err
	}
	d.logger.Debug("authenticating to control port", "methods", strings.Join(info.methods, ","))
	if err := ch.WriteLine(cmd); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if _, err := readReply(ch); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

func (d *ControlPortDialer) authCommand(info protocolInfo) (string, error) {
	switch {
	case d.Auth.Password != "" && info.has("HASHEDPASSWORD"):
		return "AUTHENTICATE " + strconv.Quote(d.Auth.Password), nil
	case info.has("COOKIE"):
		path := d.Auth.CookieFile
		if path == "" {
			path = info.cookieFile
		}
		cookie, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read auth cookie: %w", err)
		}
		return "AUTHENTICATE " + hex.EncodeToString(cookie), nil
	case info.has("NULL"):
		return "AUTHENTICATE", nil
	}
	return "", fmt.Errorf("no usable control auth method among %v", info.methods)
}

type protocolInfo struct {
	methods    []string
	cookieFile string
}

func (p protocolInfo) has(method string) bool {
	for _, m := range p.methods {
		if m == method {
			return true
		}
	}
	return false
}

// parseProtocolInfo reads the AUTH line of a PROTOCOLINFO reply, e.g.
// 250-AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE="/run/tor/control.authcookie"
func parseProtocolInfo(lines []string) protocolInfo {
	var info protocolInfo
	for _, l := range lines {
		rest, ok := strings.CutPrefix(l[4:], "AUTH ")
		if !ok {
			continue
		}
		for _, field := range splitQuoted(rest) {
			key, val, _ := strings.Cut(field, "=")
			switch key {
			case "METHODS":
				info.methods = strings.Split(val, ",")
			case "COOKIEFILE":
				if s, err := strconv.Unquote(val); err == nil {
					info.cookieFile = s
				} else {
					info.cookieFile = val
				}
			}
		}
	}
	return info
}

// splitQuoted splits on spaces outside double quotes.
func splitQuoted(s string) []string {
	var out []string
	var b strings.Builder
	quoted, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if b.Len() > 0 {
				out = append(out, b.String())
				b.Reset()
			}
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// ControlError is a non-2xx reply during connection setup.
type ControlError struct {
	Code int
	Text string
}

func (e *ControlError) Error() string { return fmt.Sprintf("control port replied %d %s", e.Code, e.Text) }

// readReply collects one reply, up to and including its "NNN " end line.
// Data replies ("NNN+") are not used during setup.
func readReply(ch *LineChannel) ([]string, error) {
	var lines []string
	for {
		l, err := ch.ReadLine()
		if err != nil {
			return lines, err
		}
		if len(l) < 4 {
			return lines, fmt.Errorf("malformed reply line %q", l)
		}
		lines = append(lines, l)
		if l[3] != ' ' {
			continue
		}
		code, err := strconv.Atoi(l[:3])
		if err != nil {
			return lines, fmt.Errorf("malformed reply line %q", l)
		}
		if code/100 != 2 {
			return lines, &ControlError{Code: code, Text: l[4:]}
		}
		return lines, nil
	}
}
