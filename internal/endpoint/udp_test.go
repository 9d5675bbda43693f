package endpoint

import (
	"net"
	"testing"
	"time"
)

func TestDialSendReceive(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer peer.Close()

	port := peer.LocalAddr().(*net.UDPAddr).Port
	ep, err := Dial("127.0.0.1", port)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.Close()

	if err := ep.Send([]byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, peerAddr, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want hello", buf[:n])
	}

	received := make(chan string, 1)
	ep.OnReceive(func(b []byte) { received <- string(b) })
	if _, err := peer.WriteToUDP([]byte("world"), peerAddr); err != nil {
		t.Fatalf("peer write: %v", err)
	}

	select {
	case got := <-received:
		if got != "world" {
			t.Fatalf("got %q, want world", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for received datagram")
	}
}

func TestNotifyBetterPathReplacesSocket(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer peer.Close()

	port := peer.LocalAddr().(*net.UDPAddr).Port
	ep, err := Dial("127.0.0.1", port)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.Close()

	if err := ep.NotifyBetterPath(); err != nil {
		t.Fatalf("notify better path: %v", err)
	}
	if err := ep.Send([]byte("still works")); err != nil {
		t.Fatalf("send after replace: %v", err)
	}
}
