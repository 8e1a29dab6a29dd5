// Package mints maps Solana token mints to dense graph node ids and builds
// the swap topology from a fixed route list.
package mints

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/jonasrmichel/solana-cycles/pkg/graph"
)

// Registry errors are configuration errors.
var (
	ErrInvalidMint    = errors.New("invalid mint address")
	ErrDuplicateToken = errors.New("duplicate token")
	ErrUnknownSymbol  = errors.New("unknown token symbol")
)

// Token contains information about a Solana token.
type Token struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Mint     string `yaml:"mint" json:"mint"` // Base58-encoded mint address
	Decimals int    `yaml:"decimals" json:"decimals"`
}

// Route is a bidirectional swap route between two token symbols.
type Route struct {
	A string `yaml:"a" json:"a"`
	B string `yaml:"b" json:"b"`
}

// Registry is the fixed mapping between tokens and node ids 1..n.
type Registry struct {
	tokens   []Token // tokens[id-1]
	byMint   map[string]int
	bySymbol map[string]int
}

// NewRegistry assigns node ids in slice order, starting at 1.
func NewRegistry(tokens []Token) (*Registry, error) {
	r := &Registry{
		tokens:   make([]Token, 0, len(tokens)),
		byMint:   make(map[string]int, len(tokens)),
		bySymbol: make(map[string]int, len(tokens)),
	}

	for _, tok := range tokens {
		if _, err := solana.PublicKeyFromBase58(tok.Mint); err != nil {
			return nil, fmt.Errorf("%w: %s (%s): %v", ErrInvalidMint, tok.Symbol, tok.Mint, err)
		}

		symbol := strings.ToUpper(tok.Symbol)
		if _, exists := r.bySymbol[symbol]; exists {
			return nil, fmt.Errorf("%w: symbol %s", ErrDuplicateToken, symbol)
		}
		if _, exists := r.byMint[tok.Mint]; exists {
			return nil, fmt.Errorf("%w: mint %s", ErrDuplicateToken, tok.Mint)
		}

		tok.Symbol = symbol
		r.tokens = append(r.tokens, tok)
		id := len(r.tokens)
		r.byMint[tok.Mint] = id
		r.bySymbol[symbol] = id
	}

	return r, nil
}

// NodeCount returns the number of registered tokens.
func (r *Registry) NodeCount() int {
	return len(r.tokens)
}

// NodeID returns the node id of a mint.
func (r *Registry) NodeID(mint string) (int, bool) {
	id, ok := r.byMint[mint]
	return id, ok
}

// SymbolID returns the node id of a symbol (case-insensitive).
func (r *Registry) SymbolID(symbol string) (int, error) {
	id, ok := r.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return graph.NoNode, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return id, nil
}

// Token returns the token registered under node id.
func (r *Registry) Token(id int) (Token, bool) {
	if id <= graph.NoNode || id > len(r.tokens) {
		return Token{}, false
	}
	return r.tokens[id-1], true
}

// Symbol returns the symbol of a mint, or the mint itself when unknown.
func (r *Registry) Symbol(mint string) string {
	if id, ok := r.byMint[mint]; ok {
		return r.tokens[id-1].Symbol
	}
	return mint
}

// Tokens returns all tokens in node id order.
func (r *Registry) Tokens() []Token {
	result := make([]Token, len(r.tokens))
	copy(result, r.tokens)
	return result
}

// BuildTopology creates the swap topology. Each route adds A -> B and then
// B -> A, in list order.
func (r *Registry) BuildTopology(routes []Route) (*graph.Topology, error) {
	topo, err := graph.NewTopology(r.NodeCount())
	if err != nil {
		return nil, err
	}

	for _, route := range routes {
		a, err := r.SymbolID(route.A)
		if err != nil {
			return nil, err
		}
		b, err := r.SymbolID(route.B)
		if err != nil {
			return nil, err
		}
		if err := r.addEdge(topo, a, b); err != nil {
			return nil, err
		}
		if err := r.addEdge(topo, b, a); err != nil {
			return nil, err
		}
	}

	if err := topo.Validate(); err != nil {
		return nil, err
	}
	return topo, nil
}

func (r *Registry) addEdge(topo *graph.Topology, from, to int) error {
	_, err := topo.AddEdge(from, to, graph.EdgeInfo{
		InputMint:  r.tokens[from-1].Mint,
		OutputMint: r.tokens[to-1].Mint,
	})
	return err
}
