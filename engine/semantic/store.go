package semantic

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// Payload field names used in Qdrant.
const (
	fieldText      = "text"
	fieldCategory  = "category"
	fieldLocation  = "location"
	fieldName      = "name"
	fieldSource    = "source"
	fieldTimestamp = "timestamp"
	fieldSeverity  = "severity"
)

// pointsAPI is the subset of pb.PointsClient the store uses.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
	CreateFieldIndex(ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
}

// collectionsAPI is the subset of pb.CollectionsClient the store uses.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// VectorStore is the Qdrant-backed Index. It is the sole owner of all
// Qdrant operations.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

var _ Index = (*VectorStore)(nil)

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients creates a VectorStore from pre-built clients. Used in tests.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *VectorStore {
	return &VectorStore{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// Ping verifies the backend is reachable. Startup uses it to decide between
// the server-backed index and the in-process fallback.
func (v *VectorStore) Ping(ctx context.Context) error {
	if _, err := v.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("semantic: ping: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection and its payload indexes if missing.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}

	// Geo filtering and category filtering both lean on payload indexes.
	wait := true
	indexes := []struct {
		field string
		typ   pb.FieldType
	}{
		{fieldLocation, pb.FieldType_FieldTypeGeo},
		{fieldCategory, pb.FieldType_FieldTypeKeyword},
	}
	for _, idx := range indexes {
		_, err = v.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: v.collection,
			Wait:           &wait,
			FieldName:      idx.field,
			FieldType:      idx.typ.Enum(),
		})
		if err != nil {
			return fmt.Errorf("semantic: index %s: %w", idx.field, err)
		}
	}
	return nil
}

// Upsert stores reports as Qdrant points. Waits for the write so a report is
// query-visible when Upsert returns.
func (v *VectorStore) Upsert(ctx context.Context, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(reports))
	for i, r := range reports {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: payloadFromReport(r),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(reports), err)
	}
	return nil
}

// QueryNear performs similarity search restricted to a geographic radius.
func (v *VectorStore) QueryNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, vector []float32, limit int, category domain.Category) ([]Hit, error) {
	must := []*pb.Condition{geoRadiusCondition(center, radiusMeters)}
	if category != "" {
		must = append(must, fieldMatch(fieldCategory, string(category)))
	}

	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         &pb.Filter{Must: must},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: query near: %w", err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, p := range resp.GetResult() {
		hits[i] = Hit{
			Report: reportFromPayload(p.GetId().GetUuid(), p.GetPayload()),
			Score:  p.GetScore(),
		}
	}
	return hits, nil
}

// ScanNear lists reports near a coordinate without similarity ranking.
func (v *VectorStore) ScanNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, limit int) ([]domain.Report, error) {
	lim := uint32(limit)
	resp, err := v.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: v.collection,
		Filter:         &pb.Filter{Must: []*pb.Condition{geoRadiusCondition(center, radiusMeters)}},
		Limit:          &lim,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: scan near: %w", err)
	}

	reports := make([]domain.Report, len(resp.GetResult()))
	for i, p := range resp.GetResult() {
		reports[i] = reportFromPayload(p.GetId().GetUuid(), p.GetPayload())
	}
	return reports, nil
}

// Count returns the number of points in the collection.
func (v *VectorStore) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := v.points.Count(ctx, &pb.CountPoints{
		CollectionName: v.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("semantic: count: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

// --- payload conversion ---

func payloadFromReport(r domain.Report) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		fieldText:     strValue(r.Text),
		fieldCategory: strValue(string(r.Category)),
		fieldLocation: {Kind: &pb.Value_StructValue{StructValue: &pb.Struct{
			Fields: map[string]*pb.Value{
				"lat": {Kind: &pb.Value_DoubleValue{DoubleValue: r.Location.Lat}},
				"lon": {Kind: &pb.Value_DoubleValue{DoubleValue: r.Location.Lng}},
			},
		}}},
	}
	if r.Name != "" {
		payload[fieldName] = strValue(r.Name)
	}
	if r.Source != "" {
		payload[fieldSource] = strValue(r.Source)
	}
	if !r.Timestamp.IsZero() {
		payload[fieldTimestamp] = strValue(r.Timestamp.Format(time.RFC3339))
	}
	if r.Severity != "" {
		payload[fieldSeverity] = strValue(r.Severity)
	}
	return payload
}

func reportFromPayload(id string, payload map[string]*pb.Value) domain.Report {
	r := domain.Report{
		ID:       id,
		Text:     payload[fieldText].GetStringValue(),
		Category: domain.Category(payload[fieldCategory].GetStringValue()),
		Name:     payload[fieldName].GetStringValue(),
		Source:   payload[fieldSource].GetStringValue(),
		Severity: payload[fieldSeverity].GetStringValue(),
	}
	if loc := payload[fieldLocation].GetStructValue().GetFields(); loc != nil {
		r.Location = domain.Coordinate{
			Lat: loc["lat"].GetDoubleValue(),
			Lng: loc["lon"].GetDoubleValue(),
		}
	}
	if ts := payload[fieldTimestamp].GetStringValue(); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			r.Timestamp = parsed
		}
	}
	return r
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func geoRadiusCondition(center domain.Coordinate, radiusMeters float64) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: fieldLocation,
				GeoRadius: &pb.GeoRadius{
					Center: &pb.GeoPoint{Lat: center.Lat, Lon: center.Lng},
					Radius: float32(radiusMeters),
				},
			},
		},
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
