// Package qdrant provides a gRPC client for a Qdrant vector database. It stores
// the vectors the projections operate on: each point carries its embedding, the
// original text, and an optional label used to group points in the UI.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// scrollLimit caps how many points GetAll retrieves in one scroll.
const scrollLimit = 1000

// Client wraps a gRPC connection to one Qdrant collection.
type Client struct {
	connection        *grpc.ClientConn
	pointsClient      pb.PointsClient
	collectionsClient pb.CollectionsClient
	collectionName    string
	vectorSize        uint64
}

// Point is one stored vector with its metadata.
type Point struct {
	ID     string
	Text   string
	Label  string
	Vector []float32
}

// NewClient connects to the Qdrant server at address and ensures the target
// collection exists, creating it with cosine distance if necessary.
func NewClient(address, collectionName string, vectorSize uint64) (*Client, error) {
	connection, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	client := &Client{
		connection:        connection,
		pointsClient:      pb.NewPointsClient(connection),
		collectionsClient: pb.NewCollectionsClient(connection),
		collectionName:    collectionName,
		vectorSize:        vectorSize,
	}

	if err := client.ensureCollectionExists(context.Background()); err != nil {
		connection.Close()
		return nil, err
	}
	return client, nil
}

// ensureCollectionExists creates the collection when it is missing.
func (client *Client) ensureCollectionExists(ctx context.Context) error {
	_, err := client.collectionsClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: client.collectionName,
	})
	if err == nil {
		return nil
	}

	_, err = client.collectionsClient.Create(ctx, &pb.CreateCollection{
		CollectionName: client.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     client.vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert inserts or updates one point. The label may be empty.
func (client *Client) Upsert(ctx context.Context, pointID, text, label string, vector []float32) error {
	payload := map[string]*pb.Value{
		"text": {Kind: &pb.Value_StringValue{StringValue: text}},
	}
	if label != "" {
		payload["label"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: label}}
	}

	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: pointID},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: vector},
			},
		},
		Payload: payload,
	}

	_, err := client.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: client.collectionName,
		Points:         []*pb.PointStruct{point},
	})
	return err
}

// GetAll scrolls the collection and returns the stored points with their
// payloads and vectors.
func (client *Client) GetAll(ctx context.Context) ([]Point, error) {
	response, err := client.pointsClient.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: client.collectionName,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
		Limit:          pb.PtrOf(uint32(scrollLimit)),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll points: %w", err)
	}

	var points []Point
	for _, retrieved := range response.Result {
		point := Point{ID: retrieved.Id.GetUuid()}

		if textValue, exists := retrieved.Payload["text"]; exists {
			point.Text = textValue.GetStringValue()
		}
		if labelValue, exists := retrieved.Payload["label"]; exists {
			point.Label = labelValue.GetStringValue()
		}
		if vectorData := retrieved.Vectors.GetVector(); vectorData != nil {
			point.Vector = vectorData.Data
		}

		points = append(points, point)
	}
	return points, nil
}

// Delete removes one point by its UUID.
func (client *Client) Delete(ctx context.Context, pointID string) error {
	_, err := client.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: client.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID}},
					},
				},
			},
		},
	})
	return err
}

// Close terminates the gRPC connection.
func (client *Client) Close() error {
	return client.connection.Close()
}
