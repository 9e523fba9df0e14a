package idpoolmongodb

import (
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/idpool/types"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	_DEFAULT_DB_NAME = "spatialworker"
	_COUNTER_FIELD   = "n"
)

type mongoBackend struct {
	s     *mgo.Session
	c     *mgo.Collection
	docID string
}

type counterDoc struct {
	ID string `bson:"_id"`
	N  int64  `bson:"n"`
}

// OpenMongoBackend opens mongodb as the entity id counter; the counter lives in document docID
func OpenMongoBackend(url string, dbname string, collectionName string, docID string) (idpooltypes.IDPoolBackend, error) {
	gwlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoBackend{
		s:     session,
		c:     session.DB(dbname).C(collectionName),
		docID: docID,
	}, nil
}

// ReserveBlock increments the counter document by count with findAndModify
func (b *mongoBackend) ReserveBlock(count int) (common.EntityID, error) {
	var doc counterDoc
	_, err := b.c.FindId(b.docID).Apply(mgo.Change{
		Update:    bson.M{"$inc": bson.M{_COUNTER_FIELD: count}},
		Upsert:    true,
		ReturnNew: true,
	}, &doc)
	if err != nil {
		return common.InvalidEntityID, err
	}
	return common.EntityID(doc.N - int64(count) + 1), nil
}

// IsEOF returns if the session lost its connection
func (b *mongoBackend) IsEOF(err error) bool {
	return b.s.Ping() != nil
}

func (b *mongoBackend) Close() {
	b.s.Close()
}
