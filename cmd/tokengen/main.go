// Package main provides a CLI tool for minting test credentials for the
// stagepass API. These tokens use local demo secrets and are not valid
// against a production deployment.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stagepass/internal/seeder"
	"stagepass/internal/verify/models"
	"stagepass/pkg/secrets"
)

const defaultSecret = "stagepass-demo-secret"

func main() {
	var (
		newSecret       = flag.Bool("new-secret", false, "print a freshly generated MAC secret and its bcrypt hash, then exit")
		secret          = flag.String("secret", defaultSecret, "HMAC secret; must match STAGEPASS_MAC_SECRET on the server")
		ttl             = flag.Duration("ttl", 12*time.Hour, "credential lifetime")
		all             = flag.Bool("all", false, "mint one credential per demo roster record")
		participantID   = flag.String("id", "42", "participant id claim")
		eventID         = flag.String("event", "7", "event id claim")
		name            = flag.String("name", "A", "display name claim")
		songTitle       = flag.String("song", "S", "song title claim")
		categoryID      = flag.String("category-id", "1", "category id claim")
		categoryName    = flag.String("category-name", "Solo", "category name claim")
		subCategoryID   = flag.String("subcategory-id", "2", "subcategory id claim")
		subCategoryName = flag.String("subcategory-name", "Piano", "subcategory name claim")
	)
	flag.Parse()

	if *newSecret {
		generated, err := secrets.Generate()
		if err != nil {
			fatal(err)
		}
		hash, err := secrets.Hash(generated)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("secret: %s\nbcrypt: %s\n", generated, hash)
		return
	}

	if *all {
		for _, rec := range seeder.Records() {
			text, err := mint(rec, []byte(*secret), *ttl)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("%s/%s (%s, %s):\n%s\n\n", rec.ParticipantID, rec.EventID, rec.Name, rec.Status, text)
		}
		return
	}

	rec := &models.VerificationRecord{
		ParticipantID:   *participantID,
		EventID:         *eventID,
		Name:            *name,
		SongTitle:       *songTitle,
		CategoryID:      *categoryID,
		CategoryName:    *categoryName,
		SubCategoryID:   *subCategoryID,
		SubCategoryName: *subCategoryName,
	}
	text, err := mint(rec, []byte(*secret), *ttl)
	if err != nil {
		fatal(err)
	}
	fmt.Println(text)
}

// mint signs an HS256 credential whose identity claims live under the "data"
// claim, exactly the shape the verification pipeline extracts.
func mint(rec *models.VerificationRecord, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"data": map[string]any{
			"id":              rec.ParticipantID,
			"eventId":         rec.EventID,
			"name":            rec.Name,
			"songTitle":       rec.SongTitle,
			"categoryId":      rec.CategoryID,
			"categoryName":    rec.CategoryName,
			"subCategoryId":   rec.SubCategoryID,
			"subCategoryName": rec.SubCategoryName,
		},
	})
	return tok.SignedString(secret)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
	os.Exit(1)
}
