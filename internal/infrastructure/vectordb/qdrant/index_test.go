package qdrant

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

// fakePoints records requests; unimplemented methods panic via the nil embedded interface.
type fakePoints struct {
	pb.PointsClient

	upserts      []*pb.UpsertPoints
	searches     []*pb.SearchPoints
	fieldIndexes []*pb.CreateFieldIndexCollection
	searchResult []*pb.ScoredPoint
	err          error
}

func (f *fakePoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.upserts = append(f.upserts, in)
	return &pb.PointsOperationResponse{}, f.err
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.searches = append(f.searches, in)
	if f.err != nil {
		return nil, f.err
	}
	return &pb.SearchResponse{Result: f.searchResult}, nil
}

func (f *fakePoints) CreateFieldIndex(_ context.Context, in *pb.CreateFieldIndexCollection, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.fieldIndexes = append(f.fieldIndexes, in)
	return &pb.PointsOperationResponse{}, nil
}

type fakeCollections struct {
	pb.CollectionsClient

	getErr  error
	created []*pb.CreateCollection
}

func (f *fakeCollections) Get(_ context.Context, _ *pb.GetCollectionInfoRequest, _ ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &pb.GetCollectionInfoResponse{}, nil
}

func (f *fakeCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.created = append(f.created, in)
	return &pb.CollectionOperationResponse{}, nil
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	points := &fakePoints{}
	idx := newIndex(&fakeCollections{}, points, "refs")
	ref := entities.EntityRef{Type: "artist", ID: "A1", Data: map[string]any{"name": "DJ X", "country": "Germany"}}

	require.NoError(t, idx.Upsert(context.Background(), ref, []float32{0.1, 0.2}))
	require.Len(t, points.upserts, 1)
	point := points.upserts[0].Points[0]
	assert.Equal(t, PointID("artist", "A1"), point.Id.GetUuid())
	assert.Equal(t, "artist", point.Payload[keyEntityType].GetStringValue())

	// Feed the stored payload back as a search hit.
	points.searchResult = []*pb.ScoredPoint{{Id: point.Id, Payload: point.Payload, Score: 0.99}}
	refs, err := idx.SearchByType(context.Background(), "artist", []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ref, refs[0])

	search := points.searches[0]
	assert.Equal(t, uint64(3), search.Limit)
	assert.Equal(t, "artist", search.Filter.Must[0].GetField().Match.GetKeyword())
}

func TestIndex_Errors(t *testing.T) {
	points := &fakePoints{err: errors.New("unavailable")}
	idx := newIndex(&fakeCollections{}, points, "refs")

	err := idx.Upsert(context.Background(), entities.EntityRef{Type: "venue", ID: "V1"}, []float32{1})
	assert.ErrorContains(t, err, "upserting point")

	_, err = idx.SearchByType(context.Background(), "venue", []float32{1}, 1)
	assert.ErrorContains(t, err, "searching points by type")
}

func TestIndex_EnsureCollection(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		collections := &fakeCollections{}
		points := &fakePoints{}
		require.NoError(t, newIndex(collections, points, "refs").EnsureCollection(context.Background(), 1536))
		assert.Empty(t, collections.created)
	})

	t.Run("missing", func(t *testing.T) {
		collections := &fakeCollections{getErr: status.Error(codes.NotFound, "not found")}
		points := &fakePoints{}
		require.NoError(t, newIndex(collections, points, "refs").EnsureCollection(context.Background(), 1536))

		require.Len(t, collections.created, 1)
		assert.Equal(t, uint64(1536), collections.created[0].VectorsConfig.GetParams().Size)
		require.Len(t, points.fieldIndexes, 1)
		assert.Equal(t, keyEntityType, points.fieldIndexes[0].FieldName)
	})

	t.Run("server down", func(t *testing.T) {
		collections := &fakeCollections{getErr: status.Error(codes.Unavailable, "connection refused")}
		err := newIndex(collections, &fakePoints{}, "refs").EnsureCollection(context.Background(), 1536)
		require.Error(t, err)
		assert.Empty(t, collections.created)
	})
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("artist", "A1"), PointID("artist", "A1"))
	assert.NotEqual(t, PointID("artist", "A1"), PointID("venue", "A1"))
}
