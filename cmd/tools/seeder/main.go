package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	uri := os.Getenv("MONGO_URL")
	if uri == "" {
		log.Fatal("MONGO_URL is not set")
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "storefront"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect Mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(dbName)

	seedPincodes(ctx, db)
	seedVendors(ctx, db)
	seedCategories(ctx, db)

	log.Println("Seeding completed successfully!")
}

func seedPincodes(ctx context.Context, db *mongo.Database) {
	coll := db.Collection("service_pincodes")
	pincodes := []string{"560001", "560002", "560034", "560095", "110001", "400001"}
	for _, pin := range pincodes {
		_, err := coll.UpdateOne(ctx,
			bson.M{"_id": pin},
			bson.M{"$setOnInsert": bson.M{"_id": pin, "created_at": time.Now().UTC()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			log.Fatalf("Failed to seed pincode %s: %v", pin, err)
		}
	}
	log.Printf("Seeded %d serviceable pincodes", len(pincodes))
}

func seedVendors(ctx context.Context, db *mongo.Database) {
	coll := db.Collection("vendors")
	vendors := []bson.M{
		{
			"_id":              "vnd-blr-central",
			"name":             "SwiftKart Bengaluru Central",
			"status":           "active",
			"pincodes":         []string{"560001", "560002"},
			"delivery_message": "Delivery in 15 minutes",
		},
		{
			"_id":              "vnd-blr-south",
			"name":             "SwiftKart Bengaluru South",
			"status":           "active",
			"pincodes":         []string{"560034", "560095"},
			"delivery_message": "Delivery in 25 minutes",
		},
		{
			"_id":              "vnd-del-cp",
			"name":             "SwiftKart Connaught Place",
			"status":           "active",
			"pincodes":         []string{"110001"},
			"delivery_message": "Delivery in 20 minutes",
		},
		{
			"_id":              "vnd-mum-fort",
			"name":             "SwiftKart Fort",
			"status":           "inactive",
			"pincodes":         []string{"400001"},
			"delivery_message": "Delivery in 30 minutes",
		},
	}
	for _, v := range vendors {
		_, err := coll.ReplaceOne(ctx, bson.M{"_id": v["_id"]}, v, options.Replace().SetUpsert(true))
		if err != nil {
			log.Fatalf("Failed to seed vendor %v: %v", v["_id"], err)
		}
	}
	log.Printf("Seeded %d vendors", len(vendors))
}

func seedCategories(ctx context.Context, db *mongo.Database) {
	coll := db.Collection("categories")
	categories := []bson.M{
		{"_id": "fruits-vegetables", "name": "Fruits & Vegetables", "image_ref": "categories/fruits.png", "rank": 1},
		{"_id": "dairy-bread", "name": "Dairy & Bread", "image_ref": "categories/dairy.png", "rank": 2},
		{"_id": "snacks", "name": "Snacks & Munchies", "image_ref": "categories/snacks.png", "rank": 3},
		{"_id": "beverages", "name": "Beverages", "image_ref": "categories/beverages.png", "rank": 4},
		{"_id": "household", "name": "Household Essentials", "image_ref": "categories/household.png", "rank": 5},
	}
	for _, c := range categories {
		_, err := coll.ReplaceOne(ctx, bson.M{"_id": c["_id"]}, c, options.Replace().SetUpsert(true))
		if err != nil {
			log.Fatalf("Failed to seed category %v: %v", c["_id"], err)
		}
	}
	log.Printf("Seeded %d categories", len(categories))
}
