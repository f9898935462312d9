package chain

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcHandler func(params []json.RawMessage) (any, *rpcError)

// fakeNode is a minimal JSON-RPC endpoint; unknown methods fail the test.
type fakeNode struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	params   map[string][][]json.RawMessage
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	t.Helper()
	n := &fakeNode{
		t:        t,
		handlers: map[string]rpcHandler{},
		calls:    map[string]int{},
		params:   map[string][][]json.RawMessage{},
	}
	n.handle("eth_chainId", func([]json.RawMessage) (any, *rpcError) { return (*hexutil.Big)(big.NewInt(1337)), nil })
	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) lastParams(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := n.params[method]
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	h := n.handlers[req.Method]
	n.calls[req.Method]++
	n.params[req.Method] = append(n.params[req.Method], req.Params)
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if h == nil {
		n.t.Errorf("unexpected rpc method %s", req.Method)
		resp["error"] = rpcError{Code: -32601, Message: "method not found"}
	} else if res, rerr := h(req.Params); rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialFake(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.URL, testKey, opts, quietLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func headWithBaseFee(baseFee *big.Int) *types.Header {
	return &types.Header{
		Difficulty: big.NewInt(0),
		Number:     big.NewInt(100),
		GasLimit:   30_000_000,
		Time:       1,
		Extra:      []byte{},
		BaseFee:    baseFee,
	}
}

// withFees registers a London head and a node-suggested tip.
func (n *fakeNode) withFees(baseFee, tip *big.Int) {
	n.handle("eth_getBlockByNumber", func([]json.RawMessage) (any, *rpcError) {
		return headWithBaseFee(baseFee), nil
	})
	n.handle("eth_maxPriorityFeePerGas", func([]json.RawMessage) (any, *rpcError) {
		return (*hexutil.Big)(tip), nil
	})
}

func word(v int64) hexutil.Bytes {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func decodeRawTx(t *testing.T, params []json.RawMessage) *types.Transaction {
	t.Helper()
	require.Len(t, params, 1)
	var raw hexutil.Bytes
	require.NoError(t, json.Unmarshal(params[0], &raw))
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	return tx
}
