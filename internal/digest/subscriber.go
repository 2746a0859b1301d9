package digest

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/storage"
)

// Subscriber holds everything a digest run needs to know about one reader.
// Sources maps category to source name to feed URL.
type Subscriber struct {
	ID       string                       `json:"id"`
	ChatID   int64                        `json:"chat_id"`
	Profile  string                       `json:"profile"`
	Language string                       `json:"language,omitempty"`
	Sources  map[string]map[string]string `json:"sources"`
	LastPush *time.Time                   `json:"last_push,omitempty"`
}

// SourceNames returns the subscribed source names, sorted for stable output.
func (s *Subscriber) SourceNames() []string {
	var names []string
	for _, byName := range s.Sources {
		for name := range byName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FeedSources flattens the subscription map into fetchable sources.
func (s *Subscriber) FeedSources() []feed.Source {
	var out []feed.Source
	for category, byName := range s.Sources {
		for name, url := range byName {
			out = append(out, feed.Source{Name: name, Category: category, URL: url})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subscribers persists subscriber records in the key-value store.
type Subscribers struct {
	store *storage.Store
}

func NewSubscribers(store *storage.Store) *Subscribers {
	return &Subscribers{store: store}
}

func (r *Subscribers) Get(id string) (*Subscriber, error) {
	raw, ok, err := r.store.Get(storage.BucketSubscribers, []byte(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("subscriber %s not found", id)
	}
	var sub Subscriber
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decoding subscriber %s: %w", id, err)
	}
	return &sub, nil
}

func (r *Subscribers) Put(sub *Subscriber) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return r.store.Put(storage.BucketSubscribers, []byte(sub.ID), raw)
}

func (r *Subscribers) All() ([]*Subscriber, error) {
	var subs []*Subscriber
	err := r.store.ForEach(storage.BucketSubscribers, func(key string, value []byte) error {
		var sub Subscriber
		if err := json.Unmarshal(value, &sub); err != nil {
			return fmt.Errorf("decoding subscriber %s: %w", key, err)
		}
		subs = append(subs, &sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *Subscribers) Delete(id string) error {
	return r.store.Delete(storage.BucketSubscribers, []byte(id))
}
