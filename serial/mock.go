package serial

import (
	"io"
	"time"
)

// MockTransport implements Transport for testing. Reads drain ReadData;
// if Responses is set, each completed write queues the next canned
// response into ReadData, mimicking a half-duplex exchange. Flush
// discards whatever is left in ReadData, like a real port draining
// stale input.
type MockTransport struct {
	ReadData    []byte
	WriteData   []byte
	WriteErr    error
	Responses   [][]byte
	Closed      bool
	ReadTimeout time.Duration
}

func (m *MockTransport) Read(p []byte) (int, error) {
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (m *MockTransport) Write(p []byte) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.WriteData = append(m.WriteData, p...)
	if len(m.Responses) > 0 {
		m.ReadData = append(m.ReadData, m.Responses[0]...)
		m.Responses = m.Responses[1:]
	}
	return len(p), nil
}

// Lines splits the written data into the frames sent so far.
func (m *MockTransport) Lines() []string {
	var lines []string
	rest := m.WriteData
	for len(rest) > 0 {
		i := 0
		for i < len(rest) && rest[i] != '\n' {
			i++
		}
		if i == len(rest) {
			lines = append(lines, string(rest))
			break
		}
		lines = append(lines, string(rest[:i+1]))
		rest = rest[i+1:]
	}
	return lines
}

func (m *MockTransport) Close() error {
	m.Closed = true
	return nil
}

func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.ReadTimeout = timeout
	return nil
}

func (m *MockTransport) Flush() error {
	m.ReadData = nil
	return nil
}
