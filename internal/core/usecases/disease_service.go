package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/ports"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
)

// PlantVillageClasses is the output order of the leaf-disease model.
var PlantVillageClasses = [...]string{
	"Apple___Apple_scab",
	"Apple___Black_rot",
	"Apple___Cedar_apple_rust",
	"Apple___healthy",
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot",
	"Corn_(maize)___Common_rust_",
	"Corn_(maize)___Northern_Leaf_Blight",
	"Corn_(maize)___healthy",
	"Grape___Black_rot",
	"Grape___Esca_(Black_Measles)",
	"Grape___Leaf_blight_(Isariopsis_Leaf_Spot)",
	"Grape___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Tomato___Bacterial_spot",
	"Tomato___Early_blight",
	"Tomato___Late_blight",
	"Tomato___Leaf_Mold",
	"Tomato___Septoria_leaf_spot",
	"Tomato___Spider_mites Two-spotted_spider_mite",
	"Tomato___Target_Spot",
	"Tomato___Tomato_Yellow_Leaf_Curl_Virus",
	"Tomato___Tomato_mosaic_virus",
	"Tomato___healthy",
}

// MaxImageBytes caps uploads sent to the classifier.
const MaxImageBytes = 10 << 20

// DiseaseService classifies leaf images.
type DiseaseService struct {
	classifier ports.DiseaseClassifier
}

func NewDiseaseService(classifier ports.DiseaseClassifier) *DiseaseService {
	return &DiseaseService{classifier: classifier}
}

// Classify runs the model and reports its most likely class.
func (s *DiseaseService) Classify(ctx context.Context, image []byte, contentType string) (*domain.DiseasePrediction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidRequest)
	}
	if len(image) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidRequest, MaxImageBytes)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", domain.ErrInvalidRequest, contentType)
	}

	scores, err := s.classifier.Predict(ctx, image, contentType)
	if err != nil {
		return nil, err
	}
	pred, err := TopPrediction(scores)
	if err != nil {
		return nil, err
	}

	result := "diseased"
	if pred.Healthy {
		result = "healthy"
	}
	metrics.DiseaseClassifications.WithLabelValues(result).Inc()
	return pred, nil
}

// TopPrediction maps a score vector to its arg-max class. Ties go to the lower index.
func TopPrediction(scores []float64) (*domain.DiseasePrediction, error) {
	if len(scores) != len(PlantVillageClasses) {
		return nil, fmt.Errorf("%w: expected %d scores, got %d", domain.ErrProvider, len(PlantVillageClasses), len(scores))
	}
	best := 0
	for i, v := range scores {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: score %d is NaN", domain.ErrProvider, i)
		}
		if v > scores[best] {
			best = i
		}
	}
	class := PlantVillageClasses[best]
	return &domain.DiseasePrediction{
		Class:      class,
		Label:      strings.ReplaceAll(class, "_", " "),
		Confidence: math.Round(scores[best]*100*100) / 100,
		Healthy:    strings.HasSuffix(class, "healthy"),
	}, nil
}
