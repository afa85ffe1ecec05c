package service_test

import (
	"errors"
	"io"
	"sync"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

type mockKeys struct {
	mu      sync.Mutex
	stored  vo.KeyBlob
	saves   []vo.KeyBlob
	deletes int
	saveErr error
}

func (m *mockKeys) Load(vo.KeyRef) (vo.KeyBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored, nil
}

func (m *mockKeys) Save(_ vo.KeyRef, b vo.KeyBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, b)
	m.stored = b
	return nil
}

func (m *mockKeys) Delete(vo.KeyRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.stored = vo.KeyBlob{}
	return nil
}

type recordingChannel struct {
	written []string
	err     error
}

func (c *recordingChannel) ReadLine() (string, error) { return "", io.EOF }
func (c *recordingChannel) WriteLine(l string) error {
	if c.err != nil {
		return c.err
	}
	c.written = append(c.written, l)
	return nil
}
func (c *recordingChannel) Close() error { return nil }

var errBoom = errors.New("boom")
