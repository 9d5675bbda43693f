// Command mosh-client bootstraps a mosh session over SSH, then drives the
// SSP engine, VT100 terminal state, and key encoder over the resulting
// roaming UDP endpoint.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"moshcore/internal/bootstrap"
	"moshcore/internal/endpoint"
	"moshcore/internal/keys"
	"moshcore/internal/ssp"
	termstate "moshcore/internal/term"
)

// arrayFlags collects a repeated flag (here -i), matching the proxy's
// flag.Value convention.
type arrayFlags []string

func (a *arrayFlags) String() string     { return "" }
func (a *arrayFlags) Set(v string) error { *a = append(*a, v); return nil }

func main() {
	sshHost := ""
	sshUser := ""
	remoteCommand := "mosh-server new -- /bin/sh -l"
	insecure := false
	var identityArgs arrayFlags

	flag.StringVar(&sshHost, "host", "", "SSH host to bootstrap the mosh session through")
	flag.StringVar(&sshUser, "user", "", "SSH user name")
	flag.StringVar(&remoteCommand, "remote-command", remoteCommand, "Command that prints MOSH CONNECT on the server")
	flag.BoolVar(&insecure, "insecure", false, "Skip known_hosts verification (testing only)")
	flag.Var(&identityArgs, "i", "SSH identity file `path`s (repeatable)")
	flag.Parse()

	if sshHost == "" || sshUser == "" {
		flag.Usage()
		os.Exit(1)
	}

	client, err := dialSSH(sshHost, sshUser, identityArgs, insecure)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosh-client: ssh dial: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	output, err := runBootstrapCommand(client, remoteCommand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosh-client: bootstrap: %v\n", err)
		os.Exit(1)
	}

	result, err := bootstrap.Parse(output, sshHost, "", bootstrap.PolicyDefault)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosh-client: %v\n", err)
		os.Exit(1)
	}
	key, err := bootstrap.DecodeKey(result.Key)
	if err != nil {
		// Invalid session key is fatal and surfaced from session construction.
		fmt.Fprintf(os.Stderr, "mosh-client: %v\n", err)
		os.Exit(1)
	}

	ep, err := endpoint.Dial(result.Host, result.UDPPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosh-client: udp dial: %v\n", err)
		os.Exit(1)
	}
	defer ep.Close()

	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cols, rows = w, h
	}
	feed := termstate.NewState(cols, rows)

	engine := ssp.New(key, ep, &terminalFeedAdapter{state: feed}, 0)
	engine.Start()
	defer engine.Stop()
	engine.QueueResize(int32(cols), int32(rows))

	runInteractiveLoop(engine, feed)
}

// terminalFeedAdapter satisfies ssp.TerminalFeed by forwarding into
// internal/term.State, whose own Resize already fans out to both screens.
type terminalFeedAdapter struct {
	state *termstate.State
}

func (a *terminalFeedAdapter) Feed(data []byte) { a.state.Feed(data) }
func (a *terminalFeedAdapter) Resize(w, h int)  { a.state.Resize(w, h) }

// runInteractiveLoop puts the local terminal into raw mode, relays keypresses
// through the key encoder into the SSP engine, and watches for SIGWINCH. It
// does not render: nothing here writes the terminal state to stdout.
func runInteractiveLoop(engine *ssp.Engine, state *termstate.State) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosh-client: raw mode: %v\n", err)
		return
	}
	defer term.Restore(fd, oldState)

	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, unix.SIGWINCH)
	defer signal.Stop(sigwinch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			event := keys.Event{Characters: string(buf[:n]), IsKeyDown: true}
			if b := keys.Encode(event, state.Modes); len(b) > 0 {
				engine.QueueKeystrokes(b)
			}
		}
	}()

	for {
		select {
		case <-sigwinch:
			if w, h, err := term.GetSize(fd); err == nil {
				state.Resize(w, h)
				engine.QueueResize(int32(w), int32(h))
			}
		case <-done:
			return
		}
	}
}

// dialSSH assembles an SSH client config from whatever credentials are
// available: agent keys first, then unencrypted identity files (a file that
// cannot be read or parsed, including a passphrase-protected key, is
// skipped), falling back to password auth prompted on the terminal.
func dialSSH(host, user string, identityFiles []string, insecure bool) (*ssh.Client, error) {
	var signers []ssh.Signer
	seen := map[string]bool{}

	if sock, ok := os.LookupEnv("SSH_AUTH_SOCK"); ok {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			if agentSigners, err := ag.Signers(); err == nil {
				for _, s := range agentSigners {
					id := fmt.Sprintf("%x", s.PublicKey().Marshal())
					if !seen[id] {
						signers = append(signers, s)
						seen[id] = true
					}
				}
			}
		}
	}

	for _, path := range identityFiles {
		keyBytes, err := ioutil.ReadFile(path)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			continue
		}
		id := fmt.Sprintf("%x", signer.PublicKey().Marshal())
		if !seen[id] {
			signers = append(signers, signer)
			seen[id] = true
		}
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if !insecure {
		known := ""
		if home, ok := os.LookupEnv("HOME"); ok {
			known = home + "/.ssh/known_hosts"
		}
		cb, err := knownhosts.New(known)
		if err != nil {
			return nil, fmt.Errorf("known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeysCallback(func() ([]ssh.Signer, error) { return signers, nil }),
			ssh.PasswordCallback(func() (string, error) { return promptPassword(user, host) }),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	addr := host
	if !strings.Contains(addr, ":") {
		addr += ":22"
	}
	return ssh.Dial("tcp", addr, config)
}

func promptPassword(user, host string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s@%s's password: ", user, host)
	fd := int(os.Stdin.Fd())
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	return string(b), err
}

// runBootstrapCommand runs remoteCommand over a fresh session and returns
// its stdout up to and including the first line starting with
// "MOSH CONNECT", failing if that takes longer than 10 seconds.
func runBootstrapCommand(client *ssh.Client, remoteCommand string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := session.Start(remoteCommand); err != nil {
		return "", err
	}

	ch := make(chan string, 1)
	go func() {
		var sb strings.Builder
		r := bufio.NewReader(stdout)
		for {
			line, err := r.ReadString('\n')
			sb.WriteString(line)
			if err != nil || strings.HasPrefix(line, "MOSH CONNECT") {
				break
			}
		}
		_ = session.Wait()
		ch <- sb.String()
	}()

	select {
	case out := <-ch:
		return out, nil
	case <-time.After(10 * time.Second):
		return "", fmt.Errorf("bootstrap: timed out waiting for MOSH CONNECT")
	}
}
