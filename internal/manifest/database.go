package manifest

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// RenderDatabaseSecret renders the opaque Secret carrying database
// credentials. Values go through stringData so the cluster does the
// base64 encoding; the yaml marshaler handles quote-escaping for us.
func RenderDatabaseSecret(spec DatabaseSpec) (string, error) {
	data := map[string]string{}
	switch spec.Kind {
	case Postgres:
		data["POSTGRES_USER"] = spec.User
		data["POSTGRES_PASSWORD"] = spec.Password
		data["POSTGRES_DB"] = spec.DatabaseName
	case MongoDB:
		data["MONGO_INITDB_ROOT_USERNAME"] = spec.User
		data["MONGO_INITDB_ROOT_PASSWORD"] = spec.Password
	case Redis:
		data["REDIS_PASSWORD"] = spec.Password
	}
	secret := corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{Name: secretName(spec.Name), Namespace: spec.Namespace},
		Type:       corev1.SecretTypeOpaque,
		StringData: data,
	}
	return marshal(secret)
}

// RenderDatabasePVC renders the PersistentVolumeClaim backing the
// database's data directory.
func RenderDatabasePVC(spec DatabaseSpec) (string, error) {
	pvc := corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: metav1.ObjectMeta{Name: pvcName(spec.Name), Namespace: spec.Namespace},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(spec.StorageSize),
				},
			},
		},
	}
	return marshal(pvc)
}

// RenderDatabaseService renders the headless Service fronting the
// database StatefulSet's stable network identity.
func RenderDatabaseService(spec DatabaseSpec) (string, error) {
	params := paramsFor(spec.Kind, spec.Version, spec.User)
	svc := corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{Name: spec.Name, Namespace: spec.Namespace},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  map[string]string{"app": spec.Name},
			Ports: []corev1.ServicePort{{
				Port:       params.port,
				TargetPort: intstr.FromInt(int(params.port)),
			}},
		},
	}
	return marshal(svc)
}

// RenderDatabaseStatefulSet renders the database's StatefulSet, with
// image/port/mount/probe varying by kind per the per-database parameter
// table.
func RenderDatabaseStatefulSet(spec DatabaseSpec) (string, error) {
	params := paramsFor(spec.Kind, spec.Version, spec.User)
	replicas := int32(1)

	envFrom := []corev1.EnvFromSource{{
		SecretRef: &corev1.SecretEnvSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: secretName(spec.Name)},
		},
	}}

	container := corev1.Container{
		Name:    spec.Name,
		Image:   params.image,
		EnvFrom: envFrom,
		Ports:   []corev1.ContainerPort{{ContainerPort: params.port}},
		VolumeMounts: []corev1.VolumeMount{{
			Name:      "data",
			MountPath: params.mountPath,
			SubPath:   params.mountSubPath,
		}},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler:        corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: params.readinessCmd}},
			PeriodSeconds:       params.readinessPeriod,
			FailureThreshold:    params.readinessCount,
			TimeoutSeconds:      params.livenessTimeout,
		},
		LivenessProbe: &corev1.Probe{
			ProbeHandler:        corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: params.readinessCmd}},
			InitialDelaySeconds: 30,
			PeriodSeconds:       10,
			TimeoutSeconds:      params.livenessTimeout,
		},
	}
	if len(params.extraCommand) > 0 {
		container.Command = params.extraCommand
	}

	sts := appsv1.StatefulSet{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "StatefulSet"},
		ObjectMeta: metav1.ObjectMeta{Name: spec.Name, Namespace: spec.Namespace},
		Spec: appsv1.StatefulSetSpec{
			ServiceName: spec.Name,
			Replicas:    &replicas,
			Selector:    &metav1.LabelSelector{MatchLabels: map[string]string{"app": spec.Name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"app": spec.Name}},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{container},
					Volumes: []corev1.Volume{{
						Name: "data",
						VolumeSource: corev1.VolumeSource{
							PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
								ClaimName: pvcName(spec.Name),
							},
						},
					}},
				},
			},
		},
	}
	return marshal(sts)
}

func secretName(dbName string) string { return fmt.Sprintf("%s-credentials", dbName) }
func pvcName(dbName string) string    { return fmt.Sprintf("%s-data", dbName) }
