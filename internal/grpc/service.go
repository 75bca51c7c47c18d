// Package grpc serves the MovieLookup service used by other services to
// check and fetch catalog movies. Messages are protobuf well-known types,
// so the service needs no generated code.
package grpc

import (
	"context"

	grpcgo "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "catalog.v1.MovieLookup"

// Full method names.
const (
	GetMovieMethod    = "/" + ServiceName + "/GetMovie"
	MovieExistsMethod = "/" + ServiceName + "/MovieExists"
	ListMoviesMethod  = "/" + ServiceName + "/ListMovies"
)

// MovieLookupServer is the server API of catalog.v1.MovieLookup.
type MovieLookupServer interface {
	// GetMovie returns the nested shape of a movie.
	GetMovie(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	MovieExists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	// ListMovies takes optional director_id and genre_id fields and returns flat shapes.
	ListMovies(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

func RegisterMovieLookupServer(s grpcgo.ServiceRegistrar, srv MovieLookupServer) {
	s.RegisterService(&MovieLookupServiceDesc, srv)
}

var MovieLookupServiceDesc = grpcgo.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MovieLookupServer)(nil),
	Methods: []grpcgo.MethodDesc{
		{MethodName: "GetMovie", Handler: getMovieHandler},
		{MethodName: "MovieExists", Handler: movieExistsHandler},
		{MethodName: "ListMovies", Handler: listMoviesHandler},
	},
	Streams:  []grpcgo.StreamDesc{},
	Metadata: "catalog/v1/lookup.proto",
}

func getMovieHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpcgo.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieLookupServer).GetMovie(ctx, in)
	}
	info := &grpcgo.UnaryServerInfo{Server: srv, FullMethod: GetMovieMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovieLookupServer).GetMovie(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func movieExistsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpcgo.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieLookupServer).MovieExists(ctx, in)
	}
	info := &grpcgo.UnaryServerInfo{Server: srv, FullMethod: MovieExistsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovieLookupServer).MovieExists(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func listMoviesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpcgo.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieLookupServer).ListMovies(ctx, in)
	}
	info := &grpcgo.UnaryServerInfo{Server: srv, FullMethod: ListMoviesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MovieLookupServer).ListMovies(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
