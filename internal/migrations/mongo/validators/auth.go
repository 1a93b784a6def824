package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"firebase_uid", "created_at", "updated_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":          bson.M{"bsonType": "objectId"},
			"firebase_uid": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 128},
			"name":         bson.M{"bsonType": "string", "maxLength": 100},
			"email":        bson.M{"bsonType": "string"},
			"phone":        bson.M{"bsonType": "string"},
			"address":      bson.M{"bsonType": "string", "maxLength": 300},
			"created_at":   bson.M{"bsonType": "date"},
			"updated_at":   bson.M{"bsonType": "date"},
		},
	},
}

var AdminValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "email", "password_hash", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"name":          bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"email":         bson.M{"bsonType": "string", "pattern": `^[^@\s]+@[^@\s]+$`},
			"password_hash": bson.M{"bsonType": "string", "minLength": 59, "maxLength": 60},
			"created_at":    bson.M{"bsonType": "date"},
			"last_login_at": bson.M{"bsonType": "date"},
		},
	},
}
