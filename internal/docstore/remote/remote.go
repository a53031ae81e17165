// Package remote implements docstore.Store as a client of the knotcraft
// DocStoreService over Connect.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/pkg/api"
)

// Ensure Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

// Store is a remote document store.
type Store struct {
	read      *connect.Client[structpb.Struct, structpb.Value]
	write     *connect.Client[structpb.Struct, structpb.Struct]
	merge     *connect.Client[structpb.Struct, structpb.Struct]
	delete    *connect.Client[structpb.Struct, structpb.Struct]
	batched   *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[structpb.Struct, structpb.Value]
	logger    *slog.Logger

	wg sync.WaitGroup
}

// New creates a Store talking to the server at baseURL. Pass
// connect.WithInterceptors(middleware.BearerToken(...)) to authenticate.
func New(httpClient connect.HTTPClient, baseURL string, logger *slog.Logger, opts ...connect.ClientOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		read:      connect.NewClient[structpb.Struct, structpb.Value](httpClient, baseURL+api.DocStoreReadProcedure, opts...),
		write:     connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+api.DocStoreWriteProcedure, opts...),
		merge:     connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+api.DocStoreMergeProcedure, opts...),
		delete:    connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+api.DocStoreDeleteProcedure, opts...),
		batched:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+api.DocStoreBatchedMergeProcedure, opts...),
		subscribe: connect.NewClient[structpb.Struct, structpb.Value](httpClient, baseURL+api.DocStoreSubscribeProcedure, opts...),
		logger:    logger,
	}
}

// Subscribe opens a server stream for path. Stream failures are delivered to fn as
// an Event with Err set; the subscription is then finished.
func (s *Store) Subscribe(ctx context.Context, path string, fn docstore.Listener) (docstore.Subscription, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	req, err := pathRequest(path, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		stream, err := s.subscribe.CallServerStream(ctx, connect.NewRequest(req))
		if err != nil {
			s.fail(ctx, path, fn, err)
			return
		}
		defer stream.Close()

		for stream.Receive() {
			fn(docstore.Event{Snapshot: api.FromValue(stream.Msg())})
		}
		if err := stream.Err(); err != nil {
			s.fail(ctx, path, fn, err)
		} else if ctx.Err() == nil {
			s.fail(ctx, path, fn, docstore.ErrClosed)
		}
	}()

	var once sync.Once
	return docstore.SubscriptionFunc(func() { once.Do(cancel) }), nil
}

// fail reports a stream error unless the subscription was closed by the caller.
func (s *Store) fail(ctx context.Context, path string, fn docstore.Listener, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Warn("subscription stream ended", "path", path, "error", err)
	fn(docstore.Event{Err: err})
}

// Read fetches the value at path.
func (s *Store) Read(ctx context.Context, path string) (docstore.Snapshot, error) {
	req, err := pathRequest(path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.read.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return api.FromValue(resp.Msg), nil
}

// Write replaces the value at path.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	value, err := docstore.Normalize(value)
	if err != nil {
		return err
	}
	req, err := pathRequest(path, map[string]any{api.FieldValue: value})
	if err != nil {
		return err
	}
	_, err = s.write.CallUnary(ctx, connect.NewRequest(req))
	return fromConnectError(err)
}

// Merge sets each field as a child of path.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}
	// Normalize prunes empty maps; nil fields must still reach the server as deletes.
	encoded := make(map[string]any, len(fields))
	for k := range fields {
		encoded[k] = docstore.Lookup(normalized, k)
	}
	req, err := pathRequest(path, map[string]any{api.FieldFields: encoded})
	if err != nil {
		return err
	}
	_, err = s.merge.CallUnary(ctx, connect.NewRequest(req))
	return fromConnectError(err)
}

// GenerateKey returns a fresh time-ordered key. Keys are generated locally.
func (s *Store) GenerateKey(string) string {
	return docstore.NewKey()
}

// Delete removes the value at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	req, err := pathRequest(path, nil)
	if err != nil {
		return err
	}
	_, err = s.delete.CallUnary(ctx, connect.NewRequest(req))
	return fromConnectError(err)
}

// BatchedMerge applies all updates atomically on the server.
func (s *Store) BatchedMerge(ctx context.Context, updates map[string]any) error {
	_, prepared, err := docstore.PrepareUpdates(updates)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}
	req, err := api.NewStruct(map[string]any{api.FieldUpdates: prepared})
	if err != nil {
		return err
	}
	_, err = s.batched.CallUnary(ctx, connect.NewRequest(req))
	return fromConnectError(err)
}

// Close waits for subscription goroutines whose contexts have been cancelled.
func (s *Store) Close() error {
	s.wg.Wait()
	return nil
}

func pathRequest(path string, extra map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{api.FieldPath: docstore.Clean(path)}
	for k, v := range extra {
		fields[k] = v
	}
	return api.NewStruct(fields)
}

// fromConnectError restores the store's sentinel errors where the code identifies them.
func fromConnectError(err error) error {
	if err == nil {
		return nil
	}
	switch connect.CodeOf(err) {
	case connect.CodeInvalidArgument:
		return fmt.Errorf("%w: %v", docstore.ErrInvalidPath, err)
	case connect.CodeUnavailable:
		return errors.Join(docstore.ErrClosed, err)
	}
	return err
}
