package utils

import "go.mongodb.org/mongo-driver/v2/bson"

// NewID 生成 24 位十六进制 ObjectID，SQL 存储也沿用同一格式
func NewID() string { return bson.NewObjectID().Hex() }

// IsValidID 仅做语法校验：24 位十六进制
func IsValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}
