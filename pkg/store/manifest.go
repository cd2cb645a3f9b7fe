package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proofline/proofline/pkg/schema"
)

// docPayload is the gzip-blob-friendly shape one retrieved document is
// serialized to, matching artifacts.py's _doc_to_dict.
type docPayload struct {
	DocID               string     `json:"doc_id"`
	URL                 string     `json:"url"`
	Domain              string     `json:"domain"`
	Title               string     `json:"title"`
	Snippet             string     `json:"snippet"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	PublishedMethod     string     `json:"published_method,omitempty"`
	PublishedConfidence float64    `json:"published_confidence,omitempty"`
}

type replicatePayload struct {
	ReplicateIdx   int      `json:"replicate_idx"`
	PWeb           float64  `json:"p_web"`
	SupportBullets []string `json:"support_bullets"`
	OpposeBullets  []string `json:"oppose_bullets"`
	Notes          []string `json:"notes"`
	JSONValid      bool     `json:"json_valid"`
	Docs           []string `json:"docs"`
}

// serializeReplicates de-duplicates documents across replicates into a
// single doc index (keyed by URL, falling back to a random id), returning
// per-replicate payloads that reference docs by id plus the flattened doc
// list, matching artifacts.py's _serialize_replicates.
func serializeReplicates(replicates []schema.WELReplicate) ([]replicatePayload, []docPayload) {
	docIndex := map[string]docPayload{}
	docOrder := make([]string, 0)
	reps := make([]replicatePayload, 0, len(replicates))

	for _, rep := range replicates {
		docRefs := make([]string, 0, len(rep.Docs))
		for _, d := range rep.Docs {
			key := d.URL
			if key == "" {
				key = uuid.NewString()
			}
			if _, ok := docIndex[key]; !ok {
				docIndex[key] = docPayload{
					DocID: key, URL: d.URL, Domain: d.Domain, Title: d.Title,
					Snippet: d.Snippet, PublishedAt: d.PublishedAt,
					PublishedMethod: d.PublishedMethod, PublishedConfidence: d.PublishedConfidence,
				}
				docOrder = append(docOrder, key)
			}
			docRefs = append(docRefs, key)
		}
		reps = append(reps, replicatePayload{
			ReplicateIdx: rep.ReplicateIdx, PWeb: rep.PWeb,
			SupportBullets: rep.SupportBullets, OpposeBullets: rep.OpposeBullets,
			Notes: rep.Notes, JSONValid: rep.JSONValid, Docs: docRefs,
		})
	}

	docs := make([]docPayload, 0, len(docOrder))
	for _, id := range docOrder {
		docs = append(docs, docIndex[id])
	}
	return reps, docs
}

// Manifest is the per-run artifact index written alongside the gzip'd
// replicate/doc blobs, matching artifacts.py's write_web_artifact manifest
// dict.
type Manifest struct {
	ArtifactID     string             `json:"artifact_id"`
	RunID          string             `json:"run_id"`
	Mode           string             `json:"mode"`
	Claim          string             `json:"claim"`
	CreatedAt      time.Time          `json:"created_at"`
	Prior          schema.PriorBlock  `json:"prior"`
	Web            *schema.WebBlock   `json:"web,omitempty"`
	Combined       schema.CombinedBlock `json:"combined"`
	ReplicatesURI  string             `json:"replicates_uri,omitempty"`
	DocsURI        string             `json:"docs_uri,omitempty"`
	StoreRoot      string             `json:"store_root"`
}

// Record is what WriteRunArtifact returns: the manifest location and the
// gzip'd blob locations it wrote, if any.
type Record struct {
	ArtifactID    string
	ManifestURI   string
	ReplicatesURI string
	DocsURI       string
}

// WriteRunArtifact gzips and writes a run's replicate/doc blobs (when
// present) and the manifest indexing them, matching artifacts.py's
// write_web_artifact. A nil ArtifactStore (or one built with
// NewArtifactStore("disabled", "")) causes WriteRunArtifact to no-op and
// return a zero Record, matching the original's "artifact store is
// disabled" short-circuit.
func WriteRunArtifact(as ArtifactStore, runID, claim, mode string, prior schema.PriorBlock, web *schema.WebBlock, combined schema.CombinedBlock, replicates []schema.WELReplicate) (Record, error) {
	if _, disabled := as.(disabledStore); disabled || as == nil {
		return Record{}, nil
	}

	artifactID := fmt.Sprintf("%s-%s", runID, uuid.NewString()[:8])
	basePath := fmt.Sprintf("artifacts/%s/%s", runID, artifactID)

	reps, docs := serializeReplicates(replicates)

	var replicatesURI, docsURI string
	if len(reps) > 0 {
		blob, err := gzipJSON(reps)
		if err != nil {
			return Record{}, err
		}
		replicatesURI, err = as.WriteBytes(basePath+"/replicates.json.gz", blob, "application/json+gzip")
		if err != nil {
			return Record{}, err
		}
	}
	if len(docs) > 0 {
		blob, err := gzipJSON(docs)
		if err != nil {
			return Record{}, err
		}
		var err2 error
		docsURI, err2 = as.WriteBytes(basePath+"/docs.json.gz", blob, "application/json+gzip")
		if err2 != nil {
			return Record{}, err2
		}
	}

	manifest := Manifest{
		ArtifactID: artifactID, RunID: runID, Mode: mode, Claim: claim,
		CreatedAt: time.Now().UTC(), Prior: prior, Web: web, Combined: combined,
		ReplicatesURI: replicatesURI, DocsURI: docsURI, StoreRoot: as.Root(),
	}
	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("store: marshal manifest: %w", err)
	}
	manifestURI, err := as.WriteText(basePath+"/manifest.json", string(manifestBytes), "application/json")
	if err != nil {
		return Record{}, err
	}

	return Record{ArtifactID: artifactID, ManifestURI: manifestURI, ReplicatesURI: replicatesURI, DocsURI: docsURI}, nil
}

func gzipJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: marshal artifact payload: %w", err)
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("store: create gzip writer: %w", err)
	}
	if _, err := gw.Write(raw); err != nil {
		return nil, fmt.Errorf("store: gzip artifact payload: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("store: close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}
