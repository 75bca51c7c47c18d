package grpc

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"catalog-service/internal/catalog"
	"catalog-service/internal/domain"
	"catalog-service/internal/store"

	"github.com/goccy/go-json"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements MovieLookupServer over the catalog.
type Server struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewServer(c *catalog.Catalog, logger *slog.Logger) *Server {
	return &Server{catalog: c, logger: logger}
}

func (s *Server) GetMovie(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetMovie called", slog.Int64("movie_id", id))
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie id must be positive, got %d", id)
	}

	movie, err := s.catalog.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "Movie not found for gRPC GetMovie", slog.Int64("movie_id", id))
			return nil, status.Errorf(codes.NotFound, "movie %d not found", id)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie for gRPC GetMovie", slog.Int64("movie_id", id), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to retrieve movie: %v", err)
	}

	out, err := toStruct(movie)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movie: %v", err)
	}
	return out, nil
}

func (s *Server) MovieExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	id := req.GetValue()
	if id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "movie id must be positive, got %d", id)
	}
	exists, err := s.catalog.MovieExists(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check movie existence", slog.Int64("movie_id", id), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to check movie existence: %v", err)
	}
	s.logger.DebugContext(ctx, "Movie existence checked via gRPC", slog.Int64("movie_id", id), slog.Bool("exists", exists))
	return wrapperspb.Bool(exists), nil
}

func (s *Server) ListMovies(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	selector, err := selectorFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	movies, err := s.catalog.ListMoviesFlat(ctx, selector)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies for gRPC", slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to list movies: %v", err)
	}

	values := make([]*structpb.Value, 0, len(movies))
	for i := range movies {
		item, err := toStruct(movies[i])
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to encode movie: %v", err)
		}
		values = append(values, structpb.NewStructValue(item))
	}
	return &structpb.ListValue{Values: values}, nil
}

// toStruct converts a JSON-tagged value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func selectorFromStruct(req *structpb.Struct) (domain.MovieSelector, error) {
	var selector domain.MovieSelector
	var err error
	if selector.DirectorID, err = optionalID(req, "director_id"); err != nil {
		return domain.MovieSelector{}, err
	}
	if selector.GenreID, err = optionalID(req, "genre_id"); err != nil {
		return domain.MovieSelector{}, err
	}
	return selector, nil
}

func optionalID(req *structpb.Struct, name string) (*int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return nil, errors.New(name + " must be an integer")
		}
		id := int64(n)
		return &id, nil
	default:
		return nil, errors.New(name + " must be a number")
	}
}
