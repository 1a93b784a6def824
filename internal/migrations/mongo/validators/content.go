package validators

import "go.mongodb.org/mongo-driver/bson"

var EventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title", "start_date", "created_by", "created_at", "updated_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"title":         bson.M{"bsonType": "string", "minLength": 2, "maxLength": 200},
			"description":   bson.M{"bsonType": "string", "maxLength": 5000},
			"location":      bson.M{"bsonType": "string", "maxLength": 300},
			"start_date":    bson.M{"bsonType": "date"},
			"end_date":      bson.M{"bsonType": "date"},
			"image_url":     bson.M{"bsonType": "string"},
			"thumbnail_url": bson.M{"bsonType": "string"},
			"created_by":    bson.M{"bsonType": "string"},
			"created_at":    bson.M{"bsonType": "date"},
			"updated_at":    bson.M{"bsonType": "date"},
		},
	},
}

var GalleryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title", "category", "image_url", "thumbnail_url", "created_by", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"title":         bson.M{"bsonType": "string", "minLength": 2, "maxLength": 200},
			"category":      bson.M{"bsonType": "string", "minLength": 2, "maxLength": 50},
			"event_id":      bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"image_url":     bson.M{"bsonType": "string", "minLength": 1},
			"thumbnail_url": bson.M{"bsonType": "string", "minLength": 1},
			"created_by":    bson.M{"bsonType": "string"},
			"created_at":    bson.M{"bsonType": "date"},
		},
	},
}

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title", "message", "type", "read_by", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"user_id":    bson.M{"bsonType": "string"},
			"title":      bson.M{"bsonType": "string", "minLength": 1, "maxLength": 200},
			"message":    bson.M{"bsonType": "string", "minLength": 1, "maxLength": 5000},
			"type":       bson.M{"bsonType": "string", "enum": []string{"booking", "announcement"}},
			"booking_id": bson.M{"bsonType": "string"},
			"read_by": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
