package notify

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"foundhub/database"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PushSubscription stores a browser/device push endpoint for one user.
type PushSubscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID primitive.ObjectID   `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

// SendPush nudges one user's registered device. The notification document
// is the source of truth; push is best effort and failures are only logged.
func SendPush(userID primitive.ObjectID, title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subsColl := database.PushSubs

	var sub PushSubscription
	err := subsColl.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return // No subscription
	}
	if err != nil {
		log.Printf("push: failed to find subscription for user %s: %v", userID.Hex(), err)
		return
	}

	payload := map[string]interface{}{
		"title": title,
		"body":  body,
		"data": map[string]interface{}{
			"timestamp": time.Now().Unix(),
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("push: failed to marshal payload: %v", err)
		return
	}

	resp, err := webpush.SendNotification(payloadBytes, &sub.Sub, &webpush.Options{
		Subscriber:      "mailto:admin@foundhub.app",
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		TTL:             30,
	})

	if err != nil {
		log.Printf("push: failed to send to user %s: %v", userID.Hex(), err)

		// If subscription is invalid (410), delete it
		if resp != nil && resp.StatusCode == 410 {
			log.Printf("push: subscription expired for user %s, deleting", userID.Hex())
			if _, delErr := subsColl.DeleteOne(ctx, bson.M{"userId": userID}); delErr != nil {
				log.Printf("push: failed to delete expired subscription: %v", delErr)
			}
		}
		return
	}
	resp.Body.Close()
}
