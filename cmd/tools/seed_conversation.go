package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"im-core/auth"
)

// Seeds a conversation into the membership projection so a local
// gateway has something to deliver against, and mints a token per
// member for manual testing.
func main() {
	redisURL := flag.String("redis", "redis://localhost:6379/0", "Redis URL")
	conversationID := flag.String("conversation", "conv-local", "Conversation id")
	members := flag.String("members", "alice,bob,clara", "Comma-separated member ids")
	owner := flag.String("owner", "alice", "Owner id")
	kind := flag.String("type", "group", "Conversation type (direct|group)")
	secret := flag.String("secret", "local-dev-secret", "JWT signing secret")
	issuer := flag.String("issuer", "im-core", "JWT issuer")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	opt, err := redis.ParseURL(*redisURL)
	if err != nil {
		log.Fatal("Invalid redis URL: ", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	memberIDs := strings.Split(*members, ",")
	memberKey := "im:channel:members:" + *conversationID
	metaKey := "im:channel:meta:" + *conversationID

	for _, userID := range memberIDs {
		if err := client.SAdd(ctx, memberKey, strings.TrimSpace(userID)).Err(); err != nil {
			log.Fatal("Seeding members failed: ", err)
		}
	}
	err = client.HSet(ctx, metaKey,
		"type", *kind,
		"status", "active",
		"owner_id", *owner,
	).Err()
	if err != nil {
		log.Fatal("Seeding meta failed: ", err)
	}

	fmt.Printf("Seeded %s with %d members\n\n", *conversationID, len(memberIDs))
	for _, userID := range memberIDs {
		userID = strings.TrimSpace(userID)
		token, err := auth.GenerateToken([]byte(*secret), *issuer, userID, userID+"-device", *ttl)
		if err != nil {
			log.Fatal("Token generation failed: ", err)
		}
		fmt.Printf("%s:\n  %s\n", userID, token)
	}
}
