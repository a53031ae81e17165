package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/pkg/api"
)

// DocStoreService exposes a docstore.Store to authenticated clients, restricted to
// each caller's own subtrees plus the read-only vendor catalog.
type DocStoreService struct {
	store  docstore.Store
	logger *slog.Logger
}

// NewDocStoreService creates a new document store service.
func NewDocStoreService(store docstore.Store, logger *slog.Logger) *DocStoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocStoreService{store: store, logger: logger}
}

// NewDocStoreServiceHandler builds the HTTP handler serving svc and returns the path
// to mount it on.
func NewDocStoreServiceHandler(svc *DocStoreService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(api.DocStoreReadProcedure, connect.NewUnaryHandler(api.DocStoreReadProcedure, svc.Read, opts...))
	mux.Handle(api.DocStoreWriteProcedure, connect.NewUnaryHandler(api.DocStoreWriteProcedure, svc.Write, opts...))
	mux.Handle(api.DocStoreMergeProcedure, connect.NewUnaryHandler(api.DocStoreMergeProcedure, svc.Merge, opts...))
	mux.Handle(api.DocStoreDeleteProcedure, connect.NewUnaryHandler(api.DocStoreDeleteProcedure, svc.Delete, opts...))
	mux.Handle(api.DocStoreBatchedMergeProcedure, connect.NewUnaryHandler(api.DocStoreBatchedMergeProcedure, svc.BatchedMerge, opts...))
	mux.Handle(api.DocStoreSubscribeProcedure, connect.NewServerStreamHandler(api.DocStoreSubscribeProcedure, svc.Subscribe, opts...))
	return "/" + api.DocStoreServiceName + "/", mux
}

// Read returns the value at the requested path.
func (s *DocStoreService) Read(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Value], error) {
	uid := middleware.GetUserID(ctx)
	path := api.GetString(req.Msg, api.FieldPath)
	if err := authorize(uid, canRead, path); err != nil {
		return nil, toConnectError(err)
	}

	snap, err := s.store.Read(ctx, path)
	if err != nil {
		s.logger.Error("Read failed", "user_id", uid, "path", path, "error", err)
		return nil, toConnectError(err)
	}
	v, err := api.ToValue(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(v), nil
}

// Write replaces the value at the requested path.
func (s *DocStoreService) Write(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	uid := middleware.GetUserID(ctx)
	path := api.GetString(req.Msg, api.FieldPath)
	if err := authorize(uid, canWrite, path); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.Write(ctx, path, api.GetAny(req.Msg, api.FieldValue)); err != nil {
		s.logger.Error("Write failed", "user_id", uid, "path", path, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// Merge sets the given fields as children of the requested path.
func (s *DocStoreService) Merge(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	uid := middleware.GetUserID(ctx)
	path := api.GetString(req.Msg, api.FieldPath)
	if err := authorize(uid, canWrite, path); err != nil {
		return nil, toConnectError(err)
	}
	fields := api.GetStruct(req.Msg, api.FieldFields).AsMap()
	if err := s.store.Merge(ctx, path, fields); err != nil {
		s.logger.Error("Merge failed", "user_id", uid, "path", path, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// Delete removes the value at the requested path.
func (s *DocStoreService) Delete(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	uid := middleware.GetUserID(ctx)
	path := api.GetString(req.Msg, api.FieldPath)
	if err := authorize(uid, canWrite, path); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.Delete(ctx, path); err != nil {
		s.logger.Error("Delete failed", "user_id", uid, "path", path, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// BatchedMerge applies every update atomically. Each path is checked separately.
func (s *DocStoreService) BatchedMerge(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	uid := middleware.GetUserID(ctx)
	updates := api.GetStruct(req.Msg, api.FieldUpdates).AsMap()
	paths := make([]string, 0, len(updates))
	for p := range updates {
		paths = append(paths, p)
	}
	if err := authorize(uid, canWrite, paths...); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.BatchedMerge(ctx, updates); err != nil {
		s.logger.Error("BatchedMerge failed", "user_id", uid, "paths", len(paths), "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&structpb.Struct{}), nil
}

// Subscribe streams the value at the requested path: once immediately and again
// after every change. A slow client only ever receives the latest value.
func (s *DocStoreService) Subscribe(ctx context.Context, req *connect.Request[structpb.Struct], stream *connect.ServerStream[structpb.Value]) error {
	uid := middleware.GetUserID(ctx)
	path := api.GetString(req.Msg, api.FieldPath)
	if err := authorize(uid, canRead, path); err != nil {
		return toConnectError(err)
	}

	events := make(chan docstore.Event, 1)
	sub, err := s.store.Subscribe(ctx, path, func(ev docstore.Event) {
		for {
			select {
			case events <- ev:
				return
			default:
			}
			// drop the stale pending event and retry
			select {
			case <-events:
			default:
			}
		}
	})
	if err != nil {
		return toConnectError(err)
	}
	defer sub.Close()
	s.logger.Debug("Subscription opened", "user_id", uid, "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.Err != nil {
				s.logger.Warn("Subscription failed", "user_id", uid, "path", path, "error", ev.Err)
				return connect.NewError(connect.CodeUnavailable, ev.Err)
			}
			v, err := api.ToValue(ev.Snapshot)
			if err != nil {
				return connect.NewError(connect.CodeInternal, err)
			}
			if err := stream.Send(v); err != nil {
				return err
			}
		}
	}
}

// toConnectError maps store and rule errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, docstore.ErrInvalidPath),
		errors.Is(err, docstore.ErrUnsupportedValue),
		errors.Is(err, docstore.ErrOverlappingPaths):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, docstore.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
