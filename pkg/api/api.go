// Package api names the Connect procedures served by the knotcraft server and
// provides helpers for their structpb messages.
//
// Every request is a google.protobuf.Struct. Document store reads and subscription
// pushes are google.protobuf.Value; everything else answers with a Struct.
package api

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DocStoreServiceName = "knotcraft.docstore.v1.DocStoreService"
	AuthServiceName     = "knotcraft.auth.v1.AuthService"
)

// Document store procedures.
const (
	DocStoreReadProcedure         = "/" + DocStoreServiceName + "/Read"
	DocStoreWriteProcedure        = "/" + DocStoreServiceName + "/Write"
	DocStoreMergeProcedure        = "/" + DocStoreServiceName + "/Merge"
	DocStoreDeleteProcedure       = "/" + DocStoreServiceName + "/Delete"
	DocStoreBatchedMergeProcedure = "/" + DocStoreServiceName + "/BatchedMerge"
	DocStoreSubscribeProcedure    = "/" + DocStoreServiceName + "/Subscribe"
)

// Auth procedures.
const (
	AuthRegisterProcedure           = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure              = "/" + AuthServiceName + "/Login"
	AuthVerifyEmailProcedure        = "/" + AuthServiceName + "/VerifyEmail"
	AuthResendVerificationProcedure = "/" + AuthServiceName + "/ResendVerification"
	AuthGetCurrentUserProcedure     = "/" + AuthServiceName + "/GetCurrentUser"
	AuthLogoutProcedure             = "/" + AuthServiceName + "/Logout"
)

// Message field names.
const (
	FieldPath          = "path"
	FieldValue         = "value"
	FieldFields        = "fields"
	FieldUpdates       = "updates"
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldDisplayName   = "displayName"
	FieldToken         = "token"
	FieldUser          = "user"
	FieldID            = "id"
	FieldProviders     = "providers"
	FieldEmailVerified = "emailVerified"
	FieldCreatedAt     = "createdAt"
)

// NewStruct builds a Struct from JSON-like fields.
func NewStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return s, nil
}

// GetString returns the string field key, or "" when absent or not a string.
func GetString(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// GetBool returns the bool field key, or false.
func GetBool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// GetStruct returns the nested Struct at key, or nil.
func GetStruct(s *structpb.Struct, key string) *structpb.Struct {
	return s.GetFields()[key].GetStructValue()
}

// GetStrings returns the string list at key, skipping non-string entries.
func GetStrings(s *structpb.Struct, key string) []string {
	var out []string
	for _, v := range s.GetFields()[key].GetListValue().GetValues() {
		if str, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, str.StringValue)
		}
	}
	return out
}

// GetAny returns the field at key as a Go value. Absent and null fields are nil.
func GetAny(s *structpb.Struct, key string) any {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	return v.AsInterface()
}

// ToValue encodes a document store snapshot. A nil snapshot becomes null.
func ToValue(snap any) (*structpb.Value, error) {
	v, err := structpb.NewValue(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return v, nil
}

// FromValue decodes a snapshot. Null becomes nil; numbers come back as float64.
func FromValue(v *structpb.Value) any {
	if v == nil {
		return nil
	}
	return v.AsInterface()
}
