package service

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	useSvc "ikedadada/go-onionctl/internal/usecase/service"
)

// LineChannel frames a control connection into CRLF-terminated lines.
type LineChannel struct {
	conn net.Conn
	r    *bufio.Reader

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewLineChannel wraps an established connection.
func NewLineChannel(conn net.Conn) *LineChannel {
	return &LineChannel{conn: conn, r: bufio.NewReader(conn)}
}

var _ useSvc.ControlChannel = (*LineChannel)(nil)

// ReadLine returns the next line without its terminator. A final line with
// no terminator is still delivered; io.EOF follows on the next call.
func (c *LineChannel) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *LineChannel) WriteLine(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, line+"\r\n")
	return err
}

// Close closes the connection once; later calls return the first result.
func (c *LineChannel) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}
