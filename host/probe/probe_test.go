package probe

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"launchprobe/hostlink"
)

// serveFake answers each received line through reply.
func serveFake(t *testing.T, conn net.Conn, reply func(string) string) {
	t.Helper()
	go func() {
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\r')
			if err != nil {
				return
			}
			out := reply(strings.TrimSuffix(line, "\r"))
			if out == "" {
				continue
			}
			if _, err := conn.Write([]byte(out)); err != nil {
				return
			}
		}
	}()
}

func TestCommandBeforeConnect(t *testing.T) {
	_, err := New().Command("status", time.Second)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestCommandSingleLine(t *testing.T) {
	host, dev := net.Pipe()
	serveFake(t, dev, func(line string) string {
		if line == "run" {
			return "OK\r\n"
		}
		return "ERR unknown command " + line + "\r\n"
	})

	p := New()
	p.Attach(host, false)
	defer p.Close()

	reply, err := p.Command("run", time.Second)
	require.NoError(t, err)
	require.Equal(t, []string{"OK"}, reply)

	reply, err = p.Command("jump", time.Second)
	require.NoError(t, err)
	require.Equal(t, []string{"ERR unknown command jump"}, reply)
}

func TestCommandMultiLine(t *testing.T) {
	host, dev := net.Pipe()
	serveFake(t, dev, func(string) string {
		return "[EVENTS] start\r\n[EVENTS] ARM tick=0\r\n[EVENTS] end\r\n"
	})

	p := New()
	p.Attach(host, false)
	defer p.Close()

	reply, err := p.Command("events", time.Second)
	require.NoError(t, err)
	require.Len(t, reply, 3)
	require.Equal(t, "[EVENTS] ARM tick=0", reply[1])
}

func TestCommandTimeout(t *testing.T) {
	host, dev := net.Pipe()
	serveFake(t, dev, func(string) string { return "" })

	p := New()
	p.Attach(host, false)
	defer p.Close()

	_, err := p.Command("status", 20*time.Millisecond)
	require.True(t, errors.Is(err, hostlink.ErrTimeout), "got %v", err)
}

func TestCommandDiscardsBanner(t *testing.T) {
	host, dev := net.Pipe()
	p := New()
	p.Attach(host, false)
	defer p.Close()

	_, err := dev.Write([]byte("launchprobe ready\r\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.lines) == 1 }, time.Second, time.Millisecond)

	serveFake(t, dev, func(string) string { return "OK\r\n" })
	reply, err := p.Command("idle", time.Second)
	require.NoError(t, err)
	require.Equal(t, []string{"OK"}, reply)
}

func TestIsConnectedDuringClose(t *testing.T) {
	host, dev := net.Pipe()
	serveFake(t, dev, func(string) string { return "" })

	p := New()
	p.Attach(host, false)
	require.True(t, p.IsConnected())

	cmdDone := make(chan error, 1)
	go func() {
		_, err := p.Command("status", 200*time.Millisecond)
		cmdDone <- err
	}()

	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
				p.IsConnected()
			}
		}
	}()

	require.NoError(t, p.Close())
	close(stop)
	<-polled
	require.False(t, p.IsConnected())

	select {
	case err := <-cmdDone:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("command did not return after Close")
	}
}
