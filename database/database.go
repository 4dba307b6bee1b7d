package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var Users *mongo.Collection
var Posts *mongo.Collection
var DeletedPosts *mongo.Collection
var Conversations *mongo.Collection
var Messages *mongo.Collection
var Notifications *mongo.Collection
var AdminNotifications *mongo.Collection
var PushSubs *mongo.Collection

func ConnectDB() error {
	// Read MongoDB URI from environment variable
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Println("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	// Ping MongoDB
	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	name := os.Getenv("MONGODB_NAME")
	if name == "" {
		name = "foundhub"
	}
	UseDatabase(Client.Database(name))

	log.Println("Connected to MongoDB successfully")
	return nil
}

// UseDatabase binds the collection handles to db. Tests point this at a
// throwaway database.
func UseDatabase(db *mongo.Database) {
	Users = db.Collection("users")
	Posts = db.Collection("posts")
	DeletedPosts = db.Collection("deleted_posts")
	Conversations = db.Collection("conversations")
	Messages = db.Collection("messages")
	Notifications = db.Collection("notifications")
	AdminNotifications = db.Collection("admin_notifications")
	PushSubs = db.Collection("push_subscriptions")
}

func DisconnectDB() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
