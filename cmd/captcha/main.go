// Command captcha recognizes alphabetic captchas from image files with a
// pretrained ONNX model.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nvr-ai/go-captcha/inference"
	"github.com/nvr-ai/go-captcha/recognize"
	"github.com/nvr-ai/go-captcha/util"
)

func main() {
	var (
		modelPath = flag.String("model", "", "path to the ONNX model (defaults per pipeline)")
		pipeline  = flag.String("pipeline", "nn", "recognition pipeline: nn or segmentation")
		libPath   = flag.String("lib", "", "path to the ONNX Runtime shared library")
		dir       = flag.String("dir", "", "recognize every image in a directory and report accuracy against filename labels")
	)
	flag.Parse()

	if *libPath != "" {
		inference.SetLibraryPath(*libPath)
	}

	recognizer, err := newRecognizer(*pipeline, *modelPath)
	if err != nil {
		log.Fatalf("create %s recognizer: %v", *pipeline, err)
	}

	if *dir != "" {
		if err := recognizeDirectory(recognizer, *dir); err != nil {
			log.Fatalf("recognize directory %s: %v", *dir, err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		text, err := recognizer.Recognize(data)
		if err != nil {
			log.Fatalf("recognize %s: %v", path, err)
		}
		fmt.Printf("%s\t%s\n", path, text)
	}
}

func newRecognizer(pipeline, modelPath string) (recognize.Recognizer, error) {
	switch pipeline {
	case "nn":
		return recognize.NewWholeImage(modelPath)
	case "segmentation":
		return recognize.NewSegmentation(modelPath)
	}
	return nil, fmt.Errorf("unknown pipeline %q", pipeline)
}

func recognizeDirectory(recognizer recognize.Recognizer, dir string) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}

	correct := 0
	for _, file := range files {
		text, err := recognizer.Recognize(file.Data)
		if err != nil {
			return fmt.Errorf("recognize %s: %w", file.Path, err)
		}
		mark := " "
		if text == file.Label {
			correct++
			mark = "*"
		}
		fmt.Printf("%s %s\t%s\n", mark, file.Path, text)
	}
	if len(files) > 0 {
		fmt.Printf("%d/%d correct (%.1f%%)\n", correct, len(files),
			100*float64(correct)/float64(len(files)))
	}
	return nil
}
