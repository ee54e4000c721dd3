// Command raftnode is a minimal demo binary wiring the consensus
// engine to the gRPC transport, an in-memory log and the reference
// key/value state machine, with a small REPL for poking at the
// cluster.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"raftengine/kvstatemachine"
	"raftengine/memlog"
	"raftengine/raft"
	grpctransport "raftengine/transport/grpc"
)

func main() {
	id := flag.String("id", "", "this node's peer ID")
	listen := flag.String("listen", "", "address to listen for raft RPCs on, host:port")
	peersFlag := flag.String("peers", "", "comma-separated id=address pairs for the rest of the cluster")
	dialTimeout := flag.Duration("dial-timeout", 5*time.Second, "timeout for dialing peers at startup")
	flag.Parse()

	if *id == "" || *listen == "" {
		log.Fatal("raftnode: -id and -listen are required")
	}

	peerAddrs, err := parsePeers(*peersFlag)
	if err != nil {
		log.Fatalf("raftnode: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("raftnode: logger init: %v", err)
	}
	defer logger.Sync()

	grpctransport.RegisterCommandType(kvstatemachine.Command{})

	store := kvstatemachine.New()
	commandLog := memlog.New()

	dialCtx, cancel := context.WithTimeout(context.Background(), *dialTimeout)
	defer cancel()
	client, err := grpctransport.Dial(dialCtx, peerAddrs, 2*time.Second)
	if err != nil {
		log.Fatalf("raftnode: dialing peers: %v", err)
	}
	defer client.Close()

	var peers []raft.PeerID
	for peer := range peerAddrs {
		peers = append(peers, peer)
	}
	cfg := raft.DefaultConfig(raft.PeerID(*id), peers...)
	engine := raft.NewEngine(cfg, commandLog, store, client, logger)

	server := grpctransport.NewServer(engine, logger)
	if err := server.Start(*listen); err != nil {
		log.Fatalf("raftnode: listening on %s: %v", *listen, err)
	}
	defer server.Stop()

	if err := engine.Start(); err != nil {
		log.Fatalf("raftnode: starting engine: %v", err)
	}
	defer engine.Stop()

	fmt.Printf("raftnode %s listening on %s, peers: %s\n", *id, *listen, *peersFlag)
	fmt.Println("Enter commands: PUT <key> <value>, GET <key>, DELETE <key>, STATUS, QUIT")

	repl(engine, store)
}

func parsePeers(raw string) (map[raft.PeerID]string, error) {
	out := make(map[raft.PeerID]string)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, fmt.Errorf("invalid -peers entry %q, want id=address", pair)
		}
		out[raft.PeerID(kv[0])] = kv[1]
	}
	return out, nil
}

func repl(engine *raft.Engine, store *kvstatemachine.Store) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToUpper(parts[0]) {
		case "PUT":
			if len(parts) < 3 {
				fmt.Println("Usage: PUT <key> <value>")
				continue
			}
			cmd := kvstatemachine.Command{Op: kvstatemachine.OpPut, Key: parts[1], Value: []byte(strings.Join(parts[2:], " "))}
			submit(engine, cmd)

		case "DELETE":
			if len(parts) != 2 {
				fmt.Println("Usage: DELETE <key>")
				continue
			}
			cmd := kvstatemachine.Command{Op: kvstatemachine.OpDelete, Key: parts[1]}
			submit(engine, cmd)

		case "GET":
			if len(parts) != 2 {
				fmt.Println("Usage: GET <key>")
				continue
			}
			value, err := store.Get(parts[1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Printf("%s\n", value)
			}

		case "STATUS":
			fmt.Printf("role=%s term=%d leader=%s\n", engine.GetRole(), engine.GetCurrentTerm(), engine.GetLeaderID())

		case "QUIT", "EXIT":
			fmt.Println("Shutting down...")
			return

		default:
			fmt.Println("Unknown command. Available: PUT, GET, DELETE, STATUS, QUIT")
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("raftnode: reading input: %v", err)
	}
}

func submit(engine *raft.Engine, cmd kvstatemachine.Command) {
	if _, err := engine.ExecuteCommand(cmd); err != nil {
		if errors.Is(err, raft.ErrNotLeader) {
			fmt.Printf("not the leader; last known leader: %s\n", engine.GetLeaderID())
			return
		}
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}
