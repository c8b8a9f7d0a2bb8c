package codegen

import ("fmt"
	"os"
	"os/exec"
	"runtime"
)

// LinkOptions configures the final object-to-executable step (// §4.4 "link step"): the target triple driving code generation, the
// external toolchain binary to invoke, and where qirt's static archive
// lives on disk.
type LinkOptions struct {
	TargetTriple string
	Linker string // e.g. "cc", "clang", "gcc"; empty defaults to "cc"
	RuntimeLib string // path to qirt's static archive
	OutputPath string
}

// platformLibs lists the libraries calls out as mandatory
// on POSIX targets: pthreads for the M:N scheduler's OS threads, libm
// for the runtime's float intrinsics.
func platformLibs() []string {
	if runtime.GOOS == "windows" {
		return nil
	}
	return []string{"-lpthread", "-lm"}
}

// Link invokes the external C toolchain to turn one compiled object
// file into a native executable linked against qirt, then (on Unix)
// marks it executable, mirroring "link step" exactly:
// "object file -> link against the runtime static library and
// platform-mandatory libraries -> chmod 0o755 on Unix."
func Link(objPath string, opts LinkOptions) error {
	linker := opts.Linker
	if linker == "" {
		linker = "cc"
	}
	args := []string{objPath, opts.RuntimeLib, "-o", opts.OutputPath}
	if opts.TargetTriple != "" {
		args = append(args, "--target="+opts.TargetTriple)
	}
	args = append(args, platformLibs()...)

	cmd := exec.Command(linker, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("link %s: %w", opts.OutputPath, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(opts.OutputPath, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", opts.OutputPath, err)
		}
	}
	return nil
}
