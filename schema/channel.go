package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Channel is a retrieval channel that can be disabled during ablation.
type Channel string

// The closed set of retrieval channels.
const (
	VectorChannel  Channel = "vector"
	BM25Channel    Channel = "bm25"
	FTS5Channel    Channel = "fts5"
	GraphChannel   Channel = "graph"
	TriggerChannel Channel = "trigger"
)

// AllChannels lists every channel in canonical order.
var AllChannels = []Channel{VectorChannel, BM25Channel, FTS5Channel, GraphChannel, TriggerChannel}

// ErrUnknownChannel is returned when a channel name is not part of the closed set.
var ErrUnknownChannel = errors.New("unknown channel")

// ParseChannel converts a user-provided name into a Channel.
func ParseChannel(name string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(name)))
	if _, err := ch.bit(); err != nil {
		return "", fmt.Errorf("%w %q. must be vector, bm25, fts5, graph, trigger", ErrUnknownChannel, name)
	}
	return ch, nil
}

// ParseChannels parses a comma-separated list. An empty string yields AllChannels.
func ParseChannels(list string) ([]Channel, error) {
	if strings.TrimSpace(list) == "" {
		return append([]Channel(nil), AllChannels...), nil
	}
	var out []Channel
	seen := make(map[Channel]struct{})
	for part := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ch, err := ParseChannel(part)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out, nil
}

// bit maps a channel to its position in a ChannelSet.
func (c Channel) bit() (ChannelSet, error) {
	switch c {
	case VectorChannel:
		return 1 << 0, nil
	case BM25Channel:
		return 1 << 1, nil
	case FTS5Channel:
		return 1 << 2, nil
	case GraphChannel:
		return 1 << 3, nil
	case TriggerChannel:
		return 1 << 4, nil
	default:
		return 0, ErrUnknownChannel
	}
}

// ChannelSet is an immutable set of channels. The zero value is the empty set,
// which means every channel is active.
type ChannelSet uint8

// NewChannelSet builds a set from the given channels. Unknown channels are ignored.
func NewChannelSet(channels ...Channel) ChannelSet {
	var s ChannelSet
	for _, ch := range channels {
		b, err := ch.bit()
		if err != nil {
			continue
		}
		s |= b
	}
	return s
}

// Has reports whether the channel is in the set.
func (s ChannelSet) Has(ch Channel) bool {
	b, err := ch.bit()
	if err != nil {
		return false
	}
	return s&b != 0
}

// Len returns the number of channels in the set.
func (s ChannelSet) Len() int {
	n := 0
	for _, ch := range AllChannels {
		if s.Has(ch) {
			n++
		}
	}
	return n
}

// Channels returns the members in canonical order.
func (s ChannelSet) Channels() []Channel {
	var out []Channel
	for _, ch := range AllChannels {
		if s.Has(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// String renders the set as a comma-separated list.
func (s ChannelSet) String() string {
	names := make([]string, 0, len(AllChannels))
	for _, ch := range s.Channels() {
		names = append(names, string(ch))
	}
	return strings.Join(names, ",")
}

// HybridSearchFlags are the per-channel switches understood by the hybrid search pipeline.
type HybridSearchFlags struct {
	UseVector  bool `json:"use_vector"`
	UseBM25    bool `json:"use_bm25"`
	UseFTS     bool `json:"use_fts"`
	UseGraph   bool `json:"use_graph"`
	UseTrigger bool `json:"use_trigger"`
}

// ToHybridSearchFlags converts a disabled-channel set into pipeline flags.
func ToHybridSearchFlags(disabled ChannelSet) HybridSearchFlags {
	var flags HybridSearchFlags
	for _, ch := range AllChannels {
		enabled := !disabled.Has(ch)
		switch ch {
		case VectorChannel:
			flags.UseVector = enabled
		case BM25Channel:
			flags.UseBM25 = enabled
		case FTS5Channel:
			flags.UseFTS = enabled
		case GraphChannel:
			flags.UseGraph = enabled
		case TriggerChannel:
			flags.UseTrigger = enabled
		}
	}
	return flags
}
