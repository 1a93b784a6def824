package validators

import "go.mongodb.org/mongo-driver/bson"

var CalculationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"receipt_no",
			"type",
			"category",
			"amount",
			"name",
			"date",
			"created_by",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"receipt_no": bson.M{
				"bsonType": "string",
				"pattern":  `^[A-Z0-9]{1,8}-\d{4}-\d{6,}$`,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum":     []string{"income", "expense"},
			},

			"category": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"amount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"created_by": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var CounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "seq"},
		"additionalProperties": false,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "string"},
			"seq": bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
		},
	},
}
