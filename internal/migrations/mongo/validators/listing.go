package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"name",
			"address",
			"court_type",
			"location",
			"hourly_rate",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"court_type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"type", "coordinates"},
				"properties": bson.M{
					"type": bson.M{
						"enum": []string{"Point"},
					},
					"coordinates": bson.M{
						"bsonType": "array",
						"minItems": 2,
						"maxItems": 2,
						"items": bson.M{
							"bsonType": "double",
						},
					},
				},
			},

			"hourly_rate": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"daily_rate": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"maxItems": 30,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"is_active": bson.M{
				"bsonType": "bool",
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
