package pool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
)

var (
	padstackBucket = []byte("padstacks")
	packageBucket  = []byte("packages")
)

// Store is a pool packed into a single bolt database. Values are the same
// JSON documents a Dir pool holds.
type Store struct {
	db *bolt.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("pool: open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{padstackBucket, packageBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pool: init store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutPadstack stores ps.
func (s *Store) PutPadstack(ps *padstack.Padstack) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("pool: padstack %s: %w", ps.UUID, err)
	}
	return s.put(padstackBucket, ps.UUID, data)
}

// PutPackage stores p.
func (s *Store) PutPackage(p *footprint.Package) error {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return fmt.Errorf("pool: package %s: %w", p.UUID, err)
	}
	return s.put(packageBucket, p.UUID, buf.Bytes())
}

func (s *Store) put(bucket []byte, id ident.ID, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(id[:], data)
	})
}

// get copies the value out of the transaction; bolt values are only valid
// while it is open.
func (s *Store) get(bucket []byte, id ident.ID) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(id[:]); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

// GetPadstack implements footprint.Pool.
func (s *Store) GetPadstack(id ident.ID) (*padstack.Padstack, error) {
	data, err := s.get(padstackBucket, id)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	if data == nil {
		return nil, notFound("padstack", id)
	}
	ps, err := padstack.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pool: padstack %s: %w", id, err)
	}
	return ps, nil
}

// GetPackage implements footprint.Pool. Every call decodes a fresh package.
func (s *Store) GetPackage(id ident.ID) (*footprint.Package, error) {
	return s.getPackage(id, make(map[ident.ID]bool))
}

func (s *Store) getPackage(id ident.ID, visiting map[ident.ID]bool) (*footprint.Package, error) {
	data, err := s.get(packageBucket, id)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	if data == nil {
		return nil, notFound("package", id)
	}
	leave, err := enter(visiting, id)
	if err != nil {
		return nil, err
	}
	defer leave()

	p, err := footprint.Decode(bytes.NewReader(data), &resolver{
		padstacks: s.GetPadstack,
		packages:  s.getPackage,
		visiting:  visiting,
	})
	if err != nil {
		return nil, fmt.Errorf("pool: package %s: %w", id, err)
	}
	return p, nil
}

// PadstackIDs returns the stored padstack ids in ascending order.
func (s *Store) PadstackIDs() []ident.ID {
	return s.ids(padstackBucket)
}

// PackageIDs returns the stored package ids in ascending order.
func (s *Store) PackageIDs() []ident.ID {
	return s.ids(packageBucket)
}

// ids relies on bolt iterating keys in byte order, which is ident order.
func (s *Store) ids(bucket []byte) []ident.ID {
	var out []ident.ID
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			var id ident.ID
			copy(id[:], k)
			out = append(out, id)
			return nil
		})
	})
	return out
}

// Pack copies every padstack and package of src into s. Padstacks go first
// so the packed packages resolve against s.
func Pack(src Lister, s *Store) (padstacks, packages int, err error) {
	for _, id := range src.PadstackIDs() {
		ps, err := src.GetPadstack(id)
		if err != nil {
			return padstacks, packages, err
		}
		if err := s.PutPadstack(ps); err != nil {
			return padstacks, packages, err
		}
		padstacks++
	}
	for _, id := range src.PackageIDs() {
		p, err := src.GetPackage(id)
		if err != nil {
			return padstacks, packages, err
		}
		if err := s.PutPackage(p); err != nil {
			return padstacks, packages, err
		}
		packages++
	}
	return padstacks, packages, nil
}
