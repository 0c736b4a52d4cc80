package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"arguesurvey/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database
var ResponsesCollection *mongo.Collection

// extractDBName parses the database name from the URI, defaulting to "survey"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "survey"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:]
	}
	return "survey"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	dbName := extractDBName(uri)
	zap.L().Info("using database", zap.String("name", dbName))

	MongoDatabase = client.Database(dbName)
	ResponsesCollection = MongoDatabase.Collection("survey_responses")
	return nil
}

// Connected reports whether ConnectMongoDB succeeded.
func Connected() bool {
	return ResponsesCollection != nil
}

// DisconnectMongoDB closes the client if one was opened.
func DisconnectMongoDB(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}

// SaveArchivedResponse stores one received submission
func SaveArchivedResponse(ctx context.Context, doc models.ArchivedResponse) error {
	if ResponsesCollection == nil {
		return fmt.Errorf("MongoDB not connected")
	}
	if _, err := ResponsesCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

// LatestArchivedResponse returns the most recent submission for an email
func LatestArchivedResponse(ctx context.Context, email string) (*models.ArchivedResponse, error) {
	if ResponsesCollection == nil {
		return nil, fmt.Errorf("MongoDB not connected")
	}
	opts := options.FindOne().SetSort(bson.M{"timestamp": -1})

	var doc models.ArchivedResponse
	err := ResponsesCollection.FindOne(ctx, bson.M{"userInfo.email": email}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no response found for user: %s", email)
		}
		return nil, err
	}
	return &doc, nil
}
