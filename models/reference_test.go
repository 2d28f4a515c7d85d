package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserRefResolveID(t *testing.T) {
	id := primitive.NewObjectID()

	bare := NewUserRef(id)
	assert.Equal(t, id, bare.ResolveID())
	assert.True(t, bare.Is(id))

	expanded := UserRef{}
	expanded.Expand(&User{ID: id, Name: "Jovana"})
	assert.Equal(t, id, expanded.ResolveID())
	assert.True(t, expanded.Is(id))
	assert.False(t, expanded.Is(primitive.NewObjectID()))
}

func TestUserRefBSONRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()

	type doc struct {
		Ref UserRef `bson:"ref"`
	}

	raw, err := bson.Marshal(doc{Ref: NewUserRef(id)})
	require.NoError(t, err)

	var decoded doc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.Ref.ResolveID())
	assert.Nil(t, decoded.Ref.User)
}

func TestUserRefBSONPersistsBareIDWhenExpanded(t *testing.T) {
	id := primitive.NewObjectID()

	ref := UserRef{}
	ref.Expand(&User{ID: id, Name: "Marko", Email: "marko@example.com"})

	type doc struct {
		Ref UserRef `bson:"ref"`
	}

	raw, err := bson.Marshal(doc{Ref: ref})
	require.NoError(t, err)

	var plain struct {
		Ref primitive.ObjectID `bson:"ref"`
	}
	require.NoError(t, bson.Unmarshal(raw, &plain))
	assert.Equal(t, id, plain.Ref)
}

func TestUserRefBSONDecodesEmbeddedDocument(t *testing.T) {
	id := primitive.NewObjectID()

	raw, err := bson.Marshal(bson.M{"ref": User{ID: id, Name: "Ana"}})
	require.NoError(t, err)

	var decoded struct {
		Ref UserRef `bson:"ref"`
	}
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.Ref.User)
	assert.Equal(t, "Ana", decoded.Ref.User.Name)
	assert.Equal(t, id, decoded.Ref.ResolveID())
}

func TestUserRefJSON(t *testing.T) {
	id := primitive.NewObjectID()

	bareJSON, err := json.Marshal(NewUserRef(id))
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.Hex()+`"`, string(bareJSON))

	expanded := UserRef{}
	expanded.Expand(&User{ID: id, Name: "Ana"})
	expandedJSON, err := json.Marshal(expanded)
	require.NoError(t, err)
	assert.Contains(t, string(expandedJSON), `"name":"Ana"`)

	var decodedBare UserRef
	require.NoError(t, json.Unmarshal(bareJSON, &decodedBare))
	assert.Equal(t, id, decodedBare.ResolveID())

	var decodedExpanded UserRef
	require.NoError(t, json.Unmarshal(expandedJSON, &decodedExpanded))
	assert.Equal(t, id, decodedExpanded.ResolveID())
	require.NotNil(t, decodedExpanded.User)
	assert.Equal(t, "Ana", decodedExpanded.User.Name)
}
