// Package clients holds gRPC clients for the catalog's lookup service.
package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"catalog-service/internal/catalog"
	"catalog-service/internal/domain"
	catalogrpc "catalog-service/internal/grpc"
	"catalog-service/internal/logging"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrMovieNotFound is returned by GetMovie when the catalog has no such movie.
var ErrMovieNotFound = errors.New("movie not found")

const defaultCallTimeout = 3 * time.Second

// MovieLookupClient calls catalog.v1.MovieLookup.
type MovieLookupClient struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
	logger  *slog.Logger
}

// NewMovieLookupClient connects lazily to addr. Calls time out after timeout
// (3s when zero).
func NewMovieLookupClient(addr string, timeout time.Duration, logger *slog.Logger) (*MovieLookupClient, error) {
	logger.Info("Creating MovieLookup gRPC client", slog.String("address", addr))
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Error("Failed to create MovieLookup gRPC client", slog.String("address", addr), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create movie lookup client for %s: %w", addr, err)
	}
	c := NewMovieLookupClientFromConn(conn, timeout, logger)
	c.closer = conn.Close
	return c, nil
}

// NewMovieLookupClientFromConn uses an existing connection. Close does not close it.
func NewMovieLookupClientFromConn(conn grpc.ClientConnInterface, timeout time.Duration, logger *slog.Logger) *MovieLookupClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &MovieLookupClient{conn: conn, timeout: timeout, logger: logger}
}

func (c *MovieLookupClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *MovieLookupClient) invoke(ctx context.Context, method string, in, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if id := logging.RequestIDFromContext(ctx); id != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, "x-request-id", id)
	}

	err := c.conn.Invoke(callCtx, method, in, out)
	if err != nil {
		st, _ := status.FromError(err)
		c.logger.WarnContext(ctx, "MovieLookup gRPC call failed",
			slog.String("method", method),
			slog.String("code", st.Code().String()),
			slog.String("message", st.Message()))
	}
	return err
}

// GetMovie fetches the nested shape of a movie.
func (c *MovieLookupClient) GetMovie(ctx context.Context, id int64) (*catalog.MovieNested, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, catalogrpc.GetMovieMethod, wrapperspb.Int64(id), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
		}
		return nil, fmt.Errorf("grpc GetMovie failed for movie %d: %w", id, err)
	}

	var movie catalog.MovieNested
	if err := fromProto(out, &movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie %d: %w", id, err)
	}
	return &movie, nil
}

func (c *MovieLookupClient) MovieExists(ctx context.Context, id int64) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, catalogrpc.MovieExistsMethod, wrapperspb.Int64(id), out); err != nil {
		return false, fmt.Errorf("grpc MovieExists failed for movie %d: %w", id, err)
	}
	return out.GetValue(), nil
}

// ListMovies returns the flat shapes of movies matching selector.
func (c *MovieLookupClient) ListMovies(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error) {
	fields := map[string]any{}
	if selector.DirectorID != nil {
		fields["director_id"] = float64(*selector.DirectorID)
	}
	if selector.GenreID != nil {
		fields["genre_id"] = float64(*selector.GenreID)
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selector: %w", err)
	}

	out := new(structpb.ListValue)
	if err := c.invoke(ctx, catalogrpc.ListMoviesMethod, in, out); err != nil {
		return nil, fmt.Errorf("grpc ListMovies failed: %w", err)
	}

	var movies []domain.Movie
	if err := fromProto(out, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	return movies, nil
}

// fromProto decodes a Struct or ListValue into a JSON-tagged Go value.
func fromProto(msg proto.Message, v any) error {
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
