// Package qdrant provides a ReferenceIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

// Payload keys.
const (
	keyEntityType = "entity_type"
	keyEntityID   = "entity_id"
	keyData       = "data"
)

// pointNamespace seeds the deterministic point ids derived from entity keys.
var pointNamespace = uuid.MustParse("6f1c1f5e-3c9a-4f0b-9d5e-2b7a51c0a9d4")

// Index implements ports.ReferenceIndex on a Qdrant collection.
// Each entity owns exactly one point, so re-indexing replaces it.
type Index struct {
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	conn        *grpc.ClientConn
}

// NewIndex connects to Qdrant over gRPC.
func NewIndex(cfg config.QdrantConfig) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	idx := newIndex(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), cfg.Collection)
	idx.conn = conn
	return idx, nil
}

func newIndex(collections pb.CollectionsClient, points pb.PointsClient, collection string) *Index {
	return &Index{
		collections: collections,
		points:      points,
		collection:  collection,
	}
}

// apiKeyInterceptor attaches the Qdrant Cloud api-key header to every call.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Index) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection and its entity_type index if needed.
func (r *Index) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unavailable {
		return fmt.Errorf("getting collection info: %w", err)
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	_, err = r.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: r.collection,
		FieldName:      keyEntityType,
		FieldType:      pb.PtrOf(pb.FieldType_FieldTypeKeyword),
	})
	if err != nil {
		return fmt.Errorf("creating entity_type index: %w", err)
	}

	return nil
}

// Upsert stores or replaces the point of one entity.
func (r *Index) Upsert(ctx context.Context, ref entities.EntityRef, vector []float32) error {
	data, err := json.Marshal(ref.Data)
	if err != nil {
		return fmt.Errorf("marshaling entity data: %w", err)
	}

	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: PointID(ref.Type, ref.ID),
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: vector,
				},
			},
		},
		Payload: map[string]*pb.Value{
			keyEntityType: {Kind: &pb.Value_StringValue{StringValue: ref.Type}},
			keyEntityID:   {Kind: &pb.Value_StringValue{StringValue: ref.ID}},
			keyData:       {Kind: &pb.Value_StringValue{StringValue: string(data)}},
		},
	}

	_, err = r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// SearchByType returns the entities of one type closest to vector.
func (r *Index) SearchByType(ctx context.Context, entityType string, vector []float32, limit int) ([]entities.EntityRef, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: keyEntityType,
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{
									Keyword: entityType,
								},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points by type: %w", err)
	}

	refs := make([]entities.EntityRef, 0, len(resp.Result))
	for _, point := range resp.Result {
		ref, err := payloadToRef(point.Payload)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// PointID returns the point id used for an entity.
func PointID(entityType, entityID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(entityType+"/"+entityID)).String()
}

func payloadToRef(payload map[string]*pb.Value) (entities.EntityRef, error) {
	ref := entities.EntityRef{
		Type: getStringValue(payload, keyEntityType),
		ID:   getStringValue(payload, keyEntityID),
	}
	if raw := getStringValue(payload, keyData); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ref.Data); err != nil {
			return entities.EntityRef{}, fmt.Errorf("decoding payload of %s: %w", ref.Key(), err)
		}
	}
	return ref, nil
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
