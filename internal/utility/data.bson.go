package utility

import (
	"go.mongodb.org/mongo-driver/bson"
)

// ToMap converts a struct into a map[string]interface{} by round-tripping
// through BSON, so bson struct tags (including omitempty) are honored. The
// base service uses this to inject timestamps before writes.
func ToMap(s interface{}) (map[string]interface{}, error) {
	data, err := bson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
